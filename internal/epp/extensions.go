package epp

// RedemptionGracePeriodExtension reports the registry grace period a domain
// entered as a result of the command.
type RedemptionGracePeriodExtension struct {
	Statuses []string `json:"rgpStatus"`
}

func (RedemptionGracePeriodExtension) isResponseExtension() {}

// FeeExtension echoes the fee charged for a billable command.
type FeeExtension struct {
	CurrencyCode string `json:"currency"`
	FeeAmount    string `json:"fee"`
}

func (FeeExtension) isResponseExtension() {}
