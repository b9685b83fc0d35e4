package models

// OwnerInfo identifies the landlord in outgoing bill messages.
type OwnerInfo struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber" validate:"omitempty,numeric,max=10"`
	UPIID        string `json:"upiId"`
}

// IsEmpty reports whether no owner detail has been filled in.
func (o OwnerInfo) IsEmpty() bool {
	return o.Name == "" && o.MobileNumber == "" && o.UPIID == ""
}
