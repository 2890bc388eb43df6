package main

// Options is the root of the flashctl command line. Struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"f" long:"config" description:"config file (default $FLASHER_CONFIG or ~/.flasher/config.toml)"`

	Status StatusCmd `command:"status" description:"Ask the running flashd whether it serves traffic"`
	Show   ShowCmd   `command:"show"   description:"Print the flash messages a session will see on its next request"`
	Purge  PurgeCmd  `command:"purge"  description:"Remove expired sessions from the store once"`
	Init   InitCmd   `command:"init"   description:"Write the default config file"`
}

var opts Options
