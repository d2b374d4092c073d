package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addFlagValidation rejects values of the named flag that fail validate
// while the command line is parsed.
func addFlagValidation(cmd *cobra.Command, name string, validate func(string) error) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	flag.Value = &validatingValue{Value: flag.Value, validate: validate}
}

type validatingValue struct {
	pflag.Value
	validate func(string) error
}

func (v *validatingValue) Set(val string) error {
	if err := v.validate(val); err != nil {
		return err
	}
	return v.Value.Set(val)
}

func validatePort(s string) error {
	port, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", s)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(s string) error {
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v, got %q", allowed, s)
	}
}
