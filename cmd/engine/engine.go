package main

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/viper"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/messaging/conductor"
	"coop/messaging/relays"
	"coop/store"
)

func main() {
	// Various aspects of this application require global and local settings.
	// To keep things clean and tidy we put these settings in a Viper
	// configuration.
	conf := viper.New()

	// Now we initialise this configuration with basic settings that are
	// required on startup.
	actors.InitConfig(conf)
	// make the config accessible globally
	actors.SetConfig(conf)
	fmt.Println("CURRENT CONFIG")
	for k, v := range actors.MakeOrGetConfig().AllSettings() {
		fmt.Printf("\nKey: %s; Value: %v\n", k, v)
	}

	terminateChan := make(chan struct{})
	actors.SetTerminateChan(terminateChan)

	pool := relays.NewPool()
	for _, url := range conf.GetStringSlice("relays") {
		if err := pool.Connect(context.Background(), url); err != nil {
			library.LogCLI(err.Error(), 2)
		}
	}

	engine := conductor.New(store.NewMemoryStore(), pool)
	engine.Start()
	relays.WatchSleep()

	go printSignals(engine)
	go cliListener(engine)

	// The signer observer picks this up on its next poll and runs the
	// one-time startup sync.
	secret := conf.GetString("secretKey")
	if secret == "" {
		secret = nostr.GeneratePrivateKey()
		conf.Set("secretKey", secret)
		if err := conf.WriteConfig(); err != nil {
			library.LogCLI(err.Error(), 2)
		}
	}
	signer, err := actors.NewKeySigner(secret)
	if err != nil {
		library.LogCLI(err.Error(), 0)
		return
	}
	engine.SetSigner(signer)

	<-terminateChan
	actors.GetWaitGroup().Wait()
	pool.Close()
	library.LogCLI("exited gracefully", 4)
}

func printSignals(engine *conductor.Engine) {
	for s := range engine.Signals().Receive() {
		library.LogCLI(fmt.Sprintf("signal: %#v", s), 4)
	}
}
