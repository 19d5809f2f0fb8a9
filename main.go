package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
	"github.com/gregLibert/mifare-pcsc/pkg/mifare"
	"github.com/gregLibert/mifare-pcsc/pkg/pcsc"
	"github.com/gregLibert/mifare-pcsc/pkg/reader"
)

func main() {
	settle := flag.Duration("settle", reader.DefaultSettleDelay, "wait between card detection and connect")
	poll := flag.Duration("poll", pcsc.DefaultPollInterval, "maximum wait per PC/SC status request")
	block := flag.Int("block", -1, "block to read after authentication (-1 to only print the UID)")
	keyName := flag.String("key", "A", "key type used to authenticate (A or B)")
	slot := flag.Int("slot", 0, "reader key slot used for authentication")
	trailer := flag.Bool("trailer", false, "also decode the sector trailer of -block")
	flag.Parse()

	keyType, err := parseKeyType(*keyName)
	if err != nil {
		log.Fatal(err)
	}

	// --- 1. Hardware Setup ---
	transport, err := pcsc.Open(pcsc.WithPollInterval(*poll))
	if err != nil {
		log.Fatalf("Error establishing context: %s", err)
	}

	defer func() {
		if err := transport.Release(); err != nil {
			log.Printf("Warning: Failed to release context: %v", err)
		}
	}()

	readers := reader.Open(transport, reader.WithSettleDelay(*settle))

	defer func() {
		if err := readers.Close(); err != nil {
			log.Printf("Warning: PC/SC stopped with error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(">> Waiting for cards (Ctrl-C to quit)")

	// --- 2. Card Loop ---
	for {
		card, err := readers.WaitForCard(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("Stopped: %v", err)
			}
			return
		}

		inspect(card, *block, keyType, *slot, *trailer)

		if err := card.Disconnect(); err != nil && !errors.Is(err, mifare.ErrCardDisconnected) {
			log.Printf("Warning: Failed to disconnect card: %v", err)
		}
	}
}

// =========================================================================
// Helper Functions
// =========================================================================

func parseKeyType(name string) (mifare.KeyType, error) {
	switch strings.ToUpper(name) {
	case "A":
		return mifare.KeyA, nil
	case "B":
		return mifare.KeyB, nil
	default:
		return 0, fmt.Errorf("unknown key type %q, want A or B", name)
	}
}

// inspect prints the UID and, when block >= 0, the block content read with
// the first well-known key the card accepts.
func inspect(card *mifare.Card, block int, keyType mifare.KeyType, slot int, withTrailer bool) {
	fmt.Println("\n=============================================")
	fmt.Printf(" Card detected at %s\n", time.Now().Format(time.TimeOnly))
	fmt.Println("=============================================")

	uid, err := card.UID()
	if err != nil {
		log.Printf("(!) UID read failed: %v", err)
		return
	}
	fmt.Printf("UID: %s\n", iso7816.Format(uid))

	if info, err := card.Identify(); err == nil {
		fmt.Printf("Type: %s\n", info)
	} else {
		fmt.Printf("ATR: %s (%v)\n", iso7816.Format(card.ATR()), err)
	}

	if block < 0 {
		return
	}

	key, err := card.TryKeys(block, keyType, slot, mifare.DefaultKeys)
	if err != nil {
		log.Printf("(!) Authentication of block %d failed: %v", block, err)
		return
	}
	fmt.Printf("Authenticated block %d with key %s: %s\n", block, keyType, iso7816.Format(key))

	data, err := card.ReadBlock(block, mifare.BlockSize)
	if err != nil {
		describeFailure(fmt.Sprintf("read block %d", block), err)
		return
	}
	fmt.Printf("Block %02d: %s\n", block, iso7816.Format(data))

	if !withTrailer {
		return
	}

	sector := mifare.SectorOf(block)
	st, err := card.ReadTrailer(sector)
	if err != nil {
		describeFailure(fmt.Sprintf("read trailer of sector %d", sector), err)
		return
	}
	fmt.Printf("Sector %d trailer: %s\n", sector, st)
}

func describeFailure(what string, err error) {
	var serr *mifare.StatusError
	switch {
	case errors.As(err, &serr):
		fmt.Printf("(!) %s: %s\n", what, serr.Status().Verbose())
	default:
		log.Printf("(!) %s: %v", what, err)
	}
}
