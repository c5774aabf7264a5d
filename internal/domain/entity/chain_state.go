package entity

// ChainState es el estado de la cadena de facturas: último contador emitido y hash a enlazar.
type ChainState struct {
	InvoiceCounter int64  `json:"invoiceCounter"`
	PreviousHash   string `json:"previousHash"`
}
