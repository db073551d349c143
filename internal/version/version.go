// Package version holds the producer identity stamped into every model.
package version

// Producer is written as the ONNX producer_name.
const Producer = "modelport"

// Version is written as the ONNX producer_version. Release builds set it
// with -ldflags "-X github.com/pashuvision/modelport/internal/version.Version=...".
var Version = "v0.1.0-dev"
