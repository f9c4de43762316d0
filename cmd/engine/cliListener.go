package main

import (
	"context"
	"fmt"

	"github.com/eiannone/keyboard"
	"coop/engine/actors"
	"coop/messaging/conductor"
)

// cliListener is a cheap and nasty way to speed up development cycles. It listens for keypresses and executes commands.
func cliListener(engine *conductor.Engine) {
	fmt.Println("ENGINE COMMANDS:\nd: device keys\ng: generate shared encryption key\nr: request shared encryption key from other devices\np: connected peers\nt: pending resends\nc: engine config\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			panic(err)
		}
		str := string(r)
		switch str {
		default:
			if k == 13 {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to any test procedures. See main.cliListener for more details.")
		case "d":
			if device, ok := engine.Devices().Device(); ok {
				fmt.Printf("Device key: %s\n", device.PublicKey())
			} else {
				fmt.Println("Device keys not initialized yet")
			}
			if encryption, ok := engine.Devices().Encryption(); ok {
				fmt.Printf("Shared encryption key: %s\n", encryption.PublicKey())
			} else {
				fmt.Println("No shared encryption key")
			}
		case "g":
			if err := engine.InitEncryptionKeys(context.Background()); err != nil {
				fmt.Println(err.Error())
			}
		case "r":
			cached, err := engine.RequestEncryptionKeys(context.Background())
			if err != nil {
				fmt.Println(err.Error())
				break
			}
			if cached {
				fmt.Println("Shared key installed from a locally cached response")
			} else {
				fmt.Println("Request published, waiting for another device to approve")
			}
		case "p":
			for _, url := range engine.Gossip().MessagingRelays(mustAccount(engine)) {
				fmt.Printf("Messaging relay: %s\n", url)
			}
		case "t":
			fmt.Printf("Publishes pending resend after auth: %d\n", engine.Tracker().PendingResends())
		case "c":
			fmt.Println("CURRENT CONFIG")
			for key, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", key, v)
			}
		case "q":
			actors.Shutdown()
			return
		}
	}
}

func mustAccount(engine *conductor.Engine) string {
	if signer, ok := engine.Signer(); ok {
		return signer.PublicKey()
	}
	return ""
}
