// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cargo-wapm/internal/publish"
	"cargo-wapm/pkg/cargometa"
)

const (
	flagConfig            = "config"
	flagVerbose           = "verbose"
	flagManifestPath      = "manifest-path"
	flagWorkspace         = "workspace"
	flagExclude           = "exclude"
	flagFeatures          = "features"
	flagAllFeatures       = "all-features"
	flagNoDefaultFeatures = "no-default-features"
	flagNoCargoMetadata   = "no-cargo-metadata"
	flagDryRun            = "dry-run"
	flagDebug             = "debug"
	flagSkipBuild         = "skip-build"
	flagOutput            = "output"
)

// flagEnv maps flags to the environment variables that set them when the
// flag is not given on the command line.
var flagEnv = map[string]string{
	flagDryRun:       "DRY_RUN",
	flagManifestPath: "MANIFEST_PATH",
	flagWorkspace:    "WORKSPACE",
}

// globalFlags holds the flag values shared by every command.
type globalFlags struct {
	ConfigPath      string
	Verbose         bool
	NoCargoMetadata bool
	Load            cargometa.LoadOptions
	Select          cargometa.SelectOptions
}

// addGlobalFlags registers the package selection flags on the root command.
func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String(flagConfig, "", "config file (default is $XDG_CONFIG_HOME/cargo-wapm/config.cue)")
	pf.BoolP(flagVerbose, "v", false, "enable verbose output")
	pf.String(flagManifestPath, "", "path to Cargo.toml [env: MANIFEST_PATH]")
	pf.BoolP(flagWorkspace, "w", false, "publish every workspace member with a [package.metadata.wapm] table [env: WORKSPACE]")
	pf.StringSlice(flagExclude, nil, "package names to skip with --workspace")
	pf.String(flagFeatures, "", "comma-separated list of features to activate")
	pf.Bool(flagAllFeatures, false, "activate all available features")
	pf.Bool(flagNoDefaultFeatures, false, "do not activate the `default` feature")
	pf.Bool(flagNoCargoMetadata, false, "read Cargo.toml directly instead of running `cargo metadata`")
}

// addPublishFlags registers the flags that only apply to publishing.
func addPublishFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP(flagDryRun, "d", false, "build and pack the package without uploading it [env: DRY_RUN]")
	f.Bool(flagDebug, false, "compile the debug profile instead of release")
	f.Bool(flagSkipBuild, false, "use the artifacts already present in the target directory")
}

// flagViper binds the command's flags and their environment variables to a
// fresh Viper instance. A flag given on the command line wins over the
// environment.
func flagViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	for flag, env := range flagEnv {
		if err := v.BindEnv(flag, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return v, nil
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	v, err := flagViper(cmd)
	if err != nil {
		return globalFlags{}, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return globalFlags{}, fmt.Errorf("failed to determine working directory: %w", err)
	}

	return globalFlags{
		ConfigPath:      v.GetString(flagConfig),
		Verbose:         v.GetBool(flagVerbose),
		NoCargoMetadata: v.GetBool(flagNoCargoMetadata),
		Load: cargometa.LoadOptions{
			ManifestPath:      v.GetString(flagManifestPath),
			Features:          cargometa.ParseFeatures(v.GetString(flagFeatures)),
			AllFeatures:       v.GetBool(flagAllFeatures),
			NoDefaultFeatures: v.GetBool(flagNoDefaultFeatures),
		},
		Select: cargometa.SelectOptions{
			Workspace:  v.GetBool(flagWorkspace),
			Exclude:    v.GetStringSlice(flagExclude),
			CurrentDir: cwd,
		},
	}, nil
}

// publishOptions reads the pipeline options of a command. Flags a command
// does not define keep their zero value.
func publishOptions(cmd *cobra.Command, flags globalFlags) (publish.Options, error) {
	v, err := flagViper(cmd)
	if err != nil {
		return publish.Options{}, err
	}
	return publish.Options{
		Load:      flags.Load,
		Select:    flags.Select,
		DryRun:    v.GetBool(flagDryRun),
		Debug:     v.GetBool(flagDebug),
		SkipBuild: v.GetBool(flagSkipBuild),
	}, nil
}
