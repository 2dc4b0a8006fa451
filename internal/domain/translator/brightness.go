package translator

// BrightnessToHost scales a Myko brightness (0-100) to the host range (0-255).
// A missing value counts as 0.
func BrightnessToHost(v *int) int {
	if v == nil {
		return 0
	}
	return *v * 255 / 100
}

// BrightnessToWire scales a host brightness (0-255) to the Myko range (0-100).
func BrightnessToWire(v int) int {
	return v * 100 / 255
}
