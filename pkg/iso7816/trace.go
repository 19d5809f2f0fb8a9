package iso7816

import "fmt"

// TRANSACTION:
// A Transaction represents the atomic unit of communication defined in ISO 7816-3:
// one Command APDU (C-APDU) sent by the terminal, followed by one Response APDU (R-APDU)
// sent back by the card. Reader pseudo-APDUs (CLA 0xFF) never chain, so a logical
// MIFARE operation is always exactly one Transaction.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Outcome classifies the response status. A missing response is Unrecognized.
func (t *Transaction) Outcome() Outcome {
	if t.Response == nil {
		return Unrecognized
	}
	return t.Response.Status.Outcome()
}

// String renders "command -> response" for logs and error messages.
func (t *Transaction) String() string {
	cmd := "<no command>"
	if t.Command != nil {
		cmd = t.Command.String()
	}
	resp := "<no response>"
	if t.Response != nil {
		resp = t.Response.String()
	}
	return fmt.Sprintf("%s -> %s", cmd, resp)
}
