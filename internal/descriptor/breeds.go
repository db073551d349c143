package descriptor

import "fmt"

// Breeds is the built-in label list, in class index order.
var Breeds = []string{
	"Holstein Friesian", "Jersey", "Guernsey", "Ayrshire", "Brown Swiss",
	"Murrah", "Nili-Ravi", "Surti", "Mehsana", "Jaffarabadi",
	"Gir", "Sahiwal", "Red Sindhi", "Tharparkar", "Kankrej",
	"Ongole", "Krishna Valley", "Amritmahal", "Hallikar", "Kangayam",
	"Bargur", "Umblachery", "Pulikulam", "Malnad Gidda", "Deoni",
	"Dangi", "Gaolao", "Kenkatha", "Kherigarh", "Mewati",
	"Nagori", "Rathi", "Hariana", "Khillari", "Malvi",
	"Nimari", "Ponwar", "Siri", "Vechur", "Kasaragod",
	"Crossbreed 1", "Crossbreed 2", "Crossbreed 3", "Crossbreed 4", "Crossbreed 5",
	"Unknown Breed 1", "Unknown Breed 2", "Unknown Breed 3", "Unknown Breed 4", "Unknown Breed 5",
}

// Labels returns n class labels: the built-in breeds, truncated or extended
// with "Class <i>" for indexes past the list.
func Labels(n int) []string {
	if n <= 0 {
		return []string{}
	}
	labels := make([]string, n)
	for i := range labels {
		if i < len(Breeds) {
			labels[i] = Breeds[i]
		} else {
			labels[i] = fmt.Sprintf("Class %d", i)
		}
	}
	return labels
}
