package cli

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort = "Sync a modded Minecraft instance with a server"
	MsgRootLong  = `modsync brings the mods directory of a Minecraft launcher instance in line
with the mods.json manifest a server publishes. The mods directory is backed
up before anything changes and restored if the sync fails.`
	MsgSyncShort    = "Sync an instance with a server's mods.json"
	MsgVersionShort = "Print version information"
	MsgVersionLong  = "Print detailed version information including commit hash and build date"
	MsgConfigShort  = "Print the effective configuration"
	MsgConfigLong   = `Print the configuration modsync would run with, after merging the built-in
defaults, the config file and MODSYNC_ environment variables.`
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man page"

	MsgSyncLong = `Sync downloads the server's manifest, checks that it matches the local
Minecraft version, optionally updates config files from the server's config
archive, then adds missing mods and removes mods the server no longer lists.

The instance is looked up at <dir>/Instances/<Name>, where Name defaults to
the manifest host without its top-level domain, capitalized. A missing
instance is created from <dir>/Instances/VanillaMinecraft.

After a successful sync the launcher (<dir>/ATLauncher.jar) or --command is
started, unless some mods still have to be downloaded by hand.`

	MsgSyncExample = `  # Sync and start ATLauncher
  modsync sync http://example.com/file/mods.json ~/ATLauncher

  # Update a server and start it in one go
  modsync sync http://localhost/file/mods.json . -y -c 'nohup ./server.sh &'

  # Preview what would change
  modsync sync --dry-run http://example.com/file/mods.json ~/ATLauncher`

	// Version output
	MsgVersionFormat = "modsync version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"

	// Flag descriptions
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun      = "Preview changes without executing them"
	MsgFlagConfig      = "Config file (default is $XDG_CONFIG_HOME/modsync/config.toml)"
	MsgFlagFormat      = "Output format: auto, term, text or json"
	MsgFlagName        = "Alternate instance name (instead of the server's domain name with a capital letter)"
	MsgFlagInstanceDir = "The directory containing the instances themselves"
	MsgFlagPackDir     = "The directory of the instance itself"
	MsgFlagOverwrite   = "Overwrite all mod files (ensures they are fresh)"
	MsgFlagNoLaunch    = "Don't start Minecraft after syncing"
	MsgFlagCommand     = "The command to run after syncing"
	MsgFlagAlwaysYes   = "Answer yes to all questions (might say yes to replacing your files)"
	MsgFlagDefaults    = "Print the commented defaults instead, as a starting config file"
	MsgFlagConfigPath  = "Print the default config file path"
)
