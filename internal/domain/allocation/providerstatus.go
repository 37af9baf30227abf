package allocation

// StatusKind classifies a provider status answer.
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusWaiting
	StatusDelivered
	StatusEnded
)

func (k StatusKind) String() string {
	switch k {
	case StatusWaiting:
		return "waiting"
	case StatusDelivered:
		return "delivered"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ProviderStatus is the interpreted answer of a status query. Text is set
// for Delivered, Raw keeps the provider payload for logging.
type ProviderStatus struct {
	Kind StatusKind
	Text string
	Raw  string
}

func Waiting(raw string) ProviderStatus {
	return ProviderStatus{Kind: StatusWaiting, Raw: raw}
}

func Delivered(text, raw string) ProviderStatus {
	return ProviderStatus{Kind: StatusDelivered, Text: text, Raw: raw}
}

func Ended(raw string) ProviderStatus {
	return ProviderStatus{Kind: StatusEnded, Raw: raw}
}

func Unknown(raw string) ProviderStatus {
	return ProviderStatus{Kind: StatusUnknown, Raw: raw}
}
