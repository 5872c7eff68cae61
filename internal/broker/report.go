package broker

// DeliveryReport records the per-connection outcome of a broadcast. Broadcasts
// are best-effort; callers may act on the report (metrics, logging) or ignore
// it.
type DeliveryReport struct {
	Delivered []string
	Failed    map[string]error
}

func newDeliveryReport(capacity int) DeliveryReport {
	return DeliveryReport{
		Delivered: make([]string, 0, capacity),
		Failed:    make(map[string]error),
	}
}

func (r *DeliveryReport) ok(connID string) {
	r.Delivered = append(r.Delivered, connID)
}

func (r *DeliveryReport) fail(connID string, err error) {
	r.Failed[connID] = err
}

func (r DeliveryReport) DeliveredCount() int { return len(r.Delivered) }
func (r DeliveryReport) FailedCount() int    { return len(r.Failed) }
