package ports

type Metrics interface {
	ObserveRead(suppressed bool)
	ObserveWrite(err error)
	ObserveDecodeFault()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveRead(bool)    {}
func (NopMetrics) ObserveWrite(error)  {}
func (NopMetrics) ObserveDecodeFault() {}
