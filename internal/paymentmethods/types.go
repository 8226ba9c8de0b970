package paymentmethods

import "strings"

// Method is one way a vendor accepts payment. Only Type participates in the
// order payload; everything else is display metadata passed through verbatim.
type Method struct {
	Type   string `json:"type"`
	Label  string `json:"label,omitempty"`
	Handle string `json:"handle,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

// VendorInfo is the vendor metadata returned alongside the method list.
type VendorInfo struct {
	VendorName          string `json:"vendor_name,omitempty"`
	BusinessName        string `json:"business_name,omitempty"`
	BoothNumber         string `json:"booth_number,omitempty"`
	PaymentInstructions string `json:"payment_instructions,omitempty"`
}

// Settings is the directory for one vendor.
type Settings struct {
	Methods []Method   `json:"payment_methods"`
	Vendor  VendorInfo `json:"vendor"`
}

// FindByType returns the method with the given type, if the vendor offers it.
func (s *Settings) FindByType(methodType string) (Method, bool) {
	if s == nil {
		return Method{}, false
	}
	want := strings.TrimSpace(methodType)
	for _, method := range s.Methods {
		if method.Type == want {
			return method, true
		}
	}
	return Method{}, false
}
