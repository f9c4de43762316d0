package actors

import (
	"os"

	"github.com/spf13/viper"
	"coop/engine/library"
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/coop/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	config.SetDefault("appName", "Coop")
	config.SetDefault("logLevel", 4)
	config.SetDefault("relays", []string{
		"wss://relay.damus.io",
		"wss://relay.primal.net",
		"wss://relay.nos.social",
		"wss://user.kindpag.es",
		"wss://purplepag.es",
	})

	// Total metadata requests that get grouped into one subscription, and
	// the longest we wait before flushing a partial batch.
	config.SetDefault("batchLimit", 100)
	config.SetDefault("batchTimeoutMs", 300)

	// The wire protocol has no negative acknowledgment, so every one-shot
	// fetch re-checks the local store after this long and reports not-found.
	config.SetDefault("queryTimeoutSec", 5)

	config.SetDefault("signerPollMs", 800)
	config.SetDefault("giftWrapPollSec", 20)

	// Create our working directory and config file if not exist
	initRootDir(config)
	library.Touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.Mkdir(conf.GetString("rootDir"), 0755)
		if err != nil {
			library.LogCLI(err, 0)
		}
	}
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}
