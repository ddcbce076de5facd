package utils

import (
	"fmt"
	"time"
)

// HumanSize 把字节数格式化为人类可读的字符串,例如 "25.0 MB"
func HumanSize(n int64) string {
	if n < 1024 && n > -1024 {
		return fmt.Sprintf("%d B", n)
	}
	f := float64(n)
	for _, unit := range []string{"KB", "MB", "GB", "TB"} {
		f /= 1024
		if f < 1024 && f > -1024 {
			return fmt.Sprintf("%.1f %s", f, unit)
		}
	}
	return fmt.Sprintf("%.1f PB", f/1024)
}

// FormatUptime 把运行时长格式化为仪表盘展示用的简短字符串
func FormatUptime(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	if secs < 3600 {
		return fmt.Sprintf("%dm", secs/60)
	}
	hours := secs / 3600
	mins := (secs % 3600) / 60
	if hours < 24 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dd %dh", hours/24, hours%24)
}
