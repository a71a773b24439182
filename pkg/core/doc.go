// Package core implements the one-shot sync pipeline behind the sync
// command.
//
// # Pipeline
//
//  1. Locate the pack directory and create it from the vanilla instance if
//     needed (asks "Create new one?")
//  2. Read the local platform version from the instance descriptor
//  3. Fetch and validate the manifest; an incompatible manifest stops the
//     run before anything is written
//  4. Update config files from the archive (asks first)
//  5. Sync the mods directory as a transaction (asks first)
//  6. Launch the game when the result is launchable
//
// With DryRun only steps 1 to 3 run, without creating anything, and the
// resolver plan is reported instead.
package core
