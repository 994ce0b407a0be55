package core

import "strings"

// DetectFacts probes the target host for the fields step conditions use.
// Failures leave the affected fact empty rather than aborting: facts are
// advisory, steps verify what they actually depend on.
func DetectFacts(pc *ProvisionContext) {
	pc.Facts.OS = "linux"

	if res, err := pc.Runner.Run(pc, "cat /etc/os-release"); err == nil && res.Ok() {
		for _, line := range strings.Split(res.Stdout, "\n") {
			key, val, found := strings.Cut(line, "=")
			if !found {
				continue
			}
			val = strings.Trim(val, `"`)
			switch key {
			case "ID":
				pc.Facts.Distro = val
			case "VERSION_ID":
				pc.Facts.Version = val
			}
		}
	}

	if res, err := pc.Runner.Run(pc, "hostname"); err == nil && res.Ok() {
		pc.Facts.Hostname = strings.TrimSpace(res.Stdout)
	}
}
