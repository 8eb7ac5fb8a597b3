//go:build windows

package config

// Windows spells some common POSIX variables differently.
func mapEnvKey(key string) string {
	switch key {
	case "HOSTNAME":
		return "COMPUTERNAME"
	case "USER":
		return "USERNAME"
	}
	return key
}
