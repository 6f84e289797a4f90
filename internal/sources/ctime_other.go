//go:build !linux

package sources

import (
	"os"
	"time"
)

func changeTime(info os.FileInfo) time.Time {
	return changeTimeFallback(info)
}
