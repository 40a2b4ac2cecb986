//go:build !windows && !darwin && !linux

package platform

// New reports that no native adapter exists; callers switch to Fallback.
func New(Options) (Adapter, error) {
	return nil, newError("native", "open adapter", ErrUnsupported)
}
