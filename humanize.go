package main

import "fmt"

// humanSize converts a byte count into a short human-readable string.
// Thresholds are exclusive: exactly 1000 bytes is still "1000 B".
func humanSize(size int64) string {
	switch {
	case size > 1_000_000_000:
		return fmt.Sprintf("%.1f GB", float64(size)/1_000_000_000)
	case size > 1_000_000:
		return fmt.Sprintf("%d MB", size/1_000_000)
	case size > 1_000:
		return fmt.Sprintf("%d KB", size/1_000)
	}
	return fmt.Sprintf("%d B", size)
}
