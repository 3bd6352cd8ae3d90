package infra

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	checkExecInterval = 5 * time.Second
)

// MonitorExecutable signals once the running binary is replaced on disk, so the
// supervisor can restart the bot with the new build.
func MonitorExecutable() chan struct{} {
	return monitorFile(executablePath(), checkExecInterval)
}

func executablePath() string {
	exeFilename, err := os.Executable()
	if err != nil {
		log.WithError(err).Warnln("cant resolve executable path")
	}
	return exeFilename
}

func monitorFile(filename string, interval time.Duration) chan struct{} {
	ch := make(chan struct{})
	log.WithField("file", filename).Debugln("monitoring for modifications")
	stat, err := os.Stat(filename)
	if err != nil {
		log.WithError(err).Warnln("executable monitor disabled")
		return ch
	}

	go func(originalTime time.Time) {
		for {
			time.Sleep(interval)
			stat, err := os.Stat(filename)
			if err != nil {
				continue
			}
			if !originalTime.Equal(stat.ModTime()) {
				ch <- struct{}{}
				return
			}
		}
	}(stat.ModTime())
	return ch
}
