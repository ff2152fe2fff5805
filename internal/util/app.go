package util

import "fmt"

var Version = "v0.1.0"

func GetAppName() string {
	return "QRCatalog"
}

// GetUserAgent is sent with every product page request.
func GetUserAgent() string {
	return fmt.Sprintf("%s/%s", GetAppName(), Version)
}
