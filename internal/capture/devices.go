package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// MaxProbedDevices is how many device indices ListDevices tries by default.
const MaxProbedDevices = 10

// ErrNoCamera is returned when no capture device is available.
var ErrNoCamera = errors.New("no camera found")

// Prober reports whether a device index can be opened.
type Prober func(id int) bool

// ProbeDevice opens and immediately releases device id.
func ProbeDevice(id int) bool {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return false
	}
	defer vc.Close()
	return vc.IsOpened()
}

// ListDevices returns the indices in [0, limit) that probe reports as usable.
// A nil probe uses ProbeDevice.
func ListDevices(limit int, probe Prober) []int {
	if limit <= 0 {
		limit = MaxProbedDevices
	}
	if probe == nil {
		probe = ProbeDevice
	}

	var ids []int
	for id := 0; id < limit; id++ {
		if probe(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SelectDevice picks a camera from devices. A single device is used
// directly. With several, the user is asked on in: an empty line picks the
// first one and invalid answers are asked again. End of input also picks the
// first device.
func SelectDevice(devices []int, in io.Reader, out io.Writer) (int, error) {
	switch len(devices) {
	case 0:
		return 0, ErrNoCamera
	case 1:
		fmt.Fprintf(out, "Using camera %d\n", devices[0])
		return devices[0], nil
	}

	fmt.Fprintf(out, "Available cameras: %v\n", devices)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Choose a camera %v (default %d): ", devices, devices[0])
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("read camera choice: %w", err)
			}
			fmt.Fprintln(out)
			return devices[0], nil
		}

		choice := strings.TrimSpace(scanner.Text())
		if choice == "" {
			return devices[0], nil
		}

		id, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Fprintln(out, "Please enter a valid number.")
			continue
		}
		if !slices.Contains(devices, id) {
			fmt.Fprintf(out, "Camera %d is not available. Choose one of %v.\n", id, devices)
			continue
		}
		return id, nil
	}
}
