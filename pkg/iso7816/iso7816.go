/*
Package iso7816 implements the APDU framing used to drive contactless storage cards through a PC/SC reader.

It provides the ISO/IEC 7816 building blocks (Command and Response APDUs, CLA and INS bytes, Status Words) together with the PC/SC Part 3 conventions for reader pseudo-APDUs, where the class byte is 0xFF and the reader, not the card, interprets the command.

# Fundamentals

The communication with a card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Reader processes it against the card and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW). For reader pseudo-APDUs only three outcomes matter:
  - 0x9000: Success.
  - 0x6300: Failed. The card refused or could not complete the operation (wrong key, denied access). Recoverable.
  - Other: Unrecognized. The exchange is desynchronized and the session should not be trusted.

# Usage Example: Building and Interpreting a GET DATA (UID)

	ins := iso7816.MustInstruction(iso7816.INS_GET_DATA)
	cmd := iso7816.NewCommandAPDU(iso7816.ReaderClass(), ins, 0x00, 0x00, nil, iso7816.MaxShortLe)

	raw, _ := cmd.Bytes() // FF CA 00 00 00
	resp, err := iso7816.ParseResponseAPDU(reply)
	if err != nil {
	    log.Fatal(err)
	}

	switch resp.Status.Outcome() {
	case iso7816.Success:
	    fmt.Printf("UID: %s\n", iso7816.Format(resp.Data))
	case iso7816.Failed:
	    fmt.Println("Card refused the command")
	default:
	    fmt.Printf("Unexpected status %s\n", resp.Status.Verbose())
	}
*/
package iso7816
