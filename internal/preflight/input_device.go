package preflight

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// inputDevicesPath lists the kernel's input devices. Overridden in tests.
var inputDevicesPath = "/proc/bus/input/devices"

// InputProbe reports whether the configured input device is attached.
type InputProbe struct {
	Name  string
	Found bool
	Event string
}

// ProbeInputDevice looks up name in the kernel input device list.
func ProbeInputDevice(name string) InputProbe {
	name = strings.TrimSpace(name)
	probe := InputProbe{Name: name}
	file, err := os.Open(inputDevicesPath)
	if err != nil {
		return probe
	}
	defer file.Close()

	var current string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			current = ""
		case strings.HasPrefix(line, "N: Name="):
			current = strings.Trim(strings.TrimPrefix(line, "N: Name="), `"`)
		case strings.HasPrefix(line, "H: Handlers=") && strings.EqualFold(current, name):
			for _, handler := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
				if strings.HasPrefix(handler, "event") {
					probe.Found = true
					probe.Event = "/dev/input/" + handler
					return probe
				}
			}
		}
	}
	return probe
}

// Detail renders a display-friendly summary for status output.
func (p InputProbe) Detail() string {
	if !p.Found {
		return fmt.Sprintf("%q not attached", p.Name)
	}
	return fmt.Sprintf("%q on %s", p.Name, p.Event)
}

// Result converts the probe into a preflight result. A missing device is not
// fatal to the daemon, which waits for hotplug, but it fails the check.
func (p InputProbe) Result() Result {
	return Result{Name: "Input device", Passed: p.Found, Detail: p.Detail()}
}
