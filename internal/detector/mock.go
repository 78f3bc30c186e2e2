package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Hand
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FingerUpLandmarks returns a right hand low in the frame with only the index
// finger raised well above the wrist.
func FingerUpLandmarks() Hand {
	h := Hand{Handedness: HandRight, Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.90}

	// Thumb folded across the palm
	h.Points[ThumbCMC] = Point3D{X: 0.46, Y: 0.86}
	h.Points[ThumbMCP] = Point3D{X: 0.43, Y: 0.80}
	h.Points[ThumbIP] = Point3D{X: 0.44, Y: 0.76}
	h.Points[ThumbTip] = Point3D{X: 0.47, Y: 0.74}

	// Index finger pointing straight up
	h.Points[IndexMCP] = Point3D{X: 0.50, Y: 0.75}
	h.Points[IndexPIP] = Point3D{X: 0.50, Y: 0.65}
	h.Points[IndexDIP] = Point3D{X: 0.50, Y: 0.57}
	h.Points[IndexTip] = Point3D{X: 0.50, Y: 0.50}

	h.Points[MiddleMCP] = Point3D{X: 0.54, Y: 0.76}
	h.Points[MiddlePIP] = Point3D{X: 0.55, Y: 0.70, Z: -0.03}
	h.Points[MiddleDIP] = Point3D{X: 0.55, Y: 0.75, Z: -0.04}
	h.Points[MiddleTip] = Point3D{X: 0.54, Y: 0.79, Z: -0.02}

	h.Points[RingMCP] = Point3D{X: 0.57, Y: 0.78}
	h.Points[RingPIP] = Point3D{X: 0.58, Y: 0.73, Z: -0.03}
	h.Points[RingDIP] = Point3D{X: 0.58, Y: 0.78, Z: -0.04}
	h.Points[RingTip] = Point3D{X: 0.57, Y: 0.81, Z: -0.02}

	h.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.80}
	h.Points[PinkyPIP] = Point3D{X: 0.61, Y: 0.76, Z: -0.03}
	h.Points[PinkyDIP] = Point3D{X: 0.61, Y: 0.80, Z: -0.04}
	h.Points[PinkyTip] = Point3D{X: 0.60, Y: 0.83, Z: -0.02}

	return h
}

// FingerMouthLandmarks returns a right hand near the face with the index
// finger slightly raised, as if touching the corner of the mouth.
func FingerMouthLandmarks() Hand {
	h := Hand{Handedness: HandRight, Score: 0.93}

	h.Points[Wrist] = Point3D{X: 0.45, Y: 0.55}

	h.Points[ThumbCMC] = Point3D{X: 0.42, Y: 0.52}
	h.Points[ThumbMCP] = Point3D{X: 0.40, Y: 0.48}
	h.Points[ThumbIP] = Point3D{X: 0.42, Y: 0.45}
	h.Points[ThumbTip] = Point3D{X: 0.44, Y: 0.44}

	h.Points[IndexMCP] = Point3D{X: 0.46, Y: 0.46}
	h.Points[IndexPIP] = Point3D{X: 0.47, Y: 0.42}
	h.Points[IndexDIP] = Point3D{X: 0.47, Y: 0.40}
	h.Points[IndexTip] = Point3D{X: 0.48, Y: 0.38}

	h.Points[MiddleMCP] = Point3D{X: 0.49, Y: 0.46}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.42, Z: -0.03}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.46, Z: -0.04}
	h.Points[MiddleTip] = Point3D{X: 0.49, Y: 0.49, Z: -0.02}

	h.Points[RingMCP] = Point3D{X: 0.52, Y: 0.48}
	h.Points[RingPIP] = Point3D{X: 0.53, Y: 0.44, Z: -0.03}
	h.Points[RingDIP] = Point3D{X: 0.53, Y: 0.48, Z: -0.04}
	h.Points[RingTip] = Point3D{X: 0.52, Y: 0.51, Z: -0.02}

	h.Points[PinkyMCP] = Point3D{X: 0.55, Y: 0.50}
	h.Points[PinkyPIP] = Point3D{X: 0.56, Y: 0.47, Z: -0.03}
	h.Points[PinkyDIP] = Point3D{X: 0.56, Y: 0.50, Z: -0.04}
	h.Points[PinkyTip] = Point3D{X: 0.55, Y: 0.53, Z: -0.02}

	return h
}

// HandChestLandmarks returns an open right hand held flat in the lower middle
// of the frame.
func HandChestLandmarks() Hand {
	h := Hand{Handedness: HandRight, Score: 0.97}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.95}

	// Thumb spread away from the palm
	h.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.92, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.40, Y: 0.88, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.36, Y: 0.85, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.32, Y: 0.82, Z: 0.03}

	h.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.80}
	h.Points[IndexPIP] = Point3D{X: 0.44, Y: 0.72}
	h.Points[IndexDIP] = Point3D{X: 0.44, Y: 0.67}
	h.Points[IndexTip] = Point3D{X: 0.44, Y: 0.62}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.79}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.70}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.64}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.59}

	h.Points[RingMCP] = Point3D{X: 0.55, Y: 0.80}
	h.Points[RingPIP] = Point3D{X: 0.56, Y: 0.72}
	h.Points[RingDIP] = Point3D{X: 0.56, Y: 0.67}
	h.Points[RingTip] = Point3D{X: 0.56, Y: 0.63}

	h.Points[PinkyMCP] = Point3D{X: 0.59, Y: 0.82}
	h.Points[PinkyPIP] = Point3D{X: 0.61, Y: 0.76}
	h.Points[PinkyDIP] = Point3D{X: 0.62, Y: 0.72}
	h.Points[PinkyTip] = Point3D{X: 0.62, Y: 0.69}

	return h
}

// FistLandmarks returns a closed right fist with every finger curled.
func FistLandmarks() Hand {
	h := Hand{Handedness: HandRight, Score: 0.9}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.70}

	h.Points[ThumbCMC] = Point3D{X: 0.46, Y: 0.67}
	h.Points[ThumbMCP] = Point3D{X: 0.43, Y: 0.62}
	h.Points[ThumbIP] = Point3D{X: 0.45, Y: 0.59}
	h.Points[ThumbTip] = Point3D{X: 0.48, Y: 0.58}

	h.Points[IndexMCP] = Point3D{X: 0.47, Y: 0.55}
	h.Points[IndexPIP] = Point3D{X: 0.47, Y: 0.50, Z: -0.05}
	h.Points[IndexDIP] = Point3D{X: 0.48, Y: 0.54, Z: -0.04}
	h.Points[IndexTip] = Point3D{X: 0.48, Y: 0.57, Z: -0.02}

	h.Points[MiddleMCP] = Point3D{X: 0.51, Y: 0.54}
	h.Points[MiddlePIP] = Point3D{X: 0.51, Y: 0.49, Z: -0.05}
	h.Points[MiddleDIP] = Point3D{X: 0.52, Y: 0.53, Z: -0.04}
	h.Points[MiddleTip] = Point3D{X: 0.52, Y: 0.56, Z: -0.02}

	h.Points[RingMCP] = Point3D{X: 0.55, Y: 0.56}
	h.Points[RingPIP] = Point3D{X: 0.55, Y: 0.51, Z: -0.05}
	h.Points[RingDIP] = Point3D{X: 0.56, Y: 0.55, Z: -0.04}
	h.Points[RingTip] = Point3D{X: 0.55, Y: 0.58, Z: -0.02}

	h.Points[PinkyMCP] = Point3D{X: 0.58, Y: 0.58}
	h.Points[PinkyPIP] = Point3D{X: 0.59, Y: 0.54, Z: -0.05}
	h.Points[PinkyDIP] = Point3D{X: 0.59, Y: 0.57, Z: -0.04}
	h.Points[PinkyTip] = Point3D{X: 0.58, Y: 0.60, Z: -0.02}

	return h
}
