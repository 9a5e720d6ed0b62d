package util

// MaskSecret keeps the first visible characters of s and replaces the rest
// with "***". Values no longer than visible are masked entirely.
func MaskSecret(s string, visible int) string {
	if visible <= 0 || len(s) <= visible {
		return "***"
	}
	return s[:visible] + "***"
}
