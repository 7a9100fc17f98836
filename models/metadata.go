package models

// DocumentMetadata is derived once per document. A nil field means no
// pattern or entity matched; absence is a valid terminal state, not an
// error.
type DocumentMetadata struct {
	ContractType   *string `json:"contract_type"`
	ContractNumber *string `json:"contract_number"`
	VendorName     *string `json:"vendor_name"`
	ContractValue  *string `json:"contract_value"`
	Threshold      *string `json:"threshold"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
}
