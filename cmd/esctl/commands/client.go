package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tphakala/go-elastic"
)

// newLogger returns a console logger on stderr; debug when verbose.
func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// createClient builds a client from flags, env and the config file.
func createClient() (*elastic.Client, error) {
	addresses := splitAddresses(viper.GetStringSlice("addresses"))
	if len(addresses) == 0 {
		return nil, ErrAddressRequired
	}

	opts := []elastic.ClientOption{
		elastic.WithAddresses(addresses...),
		elastic.WithLogger(newLogger(os.Stderr)),
		elastic.WithMaxRetries(viper.GetInt("retries")),
		elastic.WithUserAgent("esctl/" + buildVersion),
	}

	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		opts = append(opts, elastic.WithTimeout(timeout))
	}

	if apiKey := viper.GetString("api-key"); apiKey != "" {
		opts = append(opts, elastic.WithAPIKey(apiKey))
	} else if username := viper.GetString("username"); username != "" {
		password := viper.GetString("password")
		if password == "" {
			var err error
			password, err = promptPassword(os.Stderr)
			if err != nil {
				return nil, err
			}
		}
		opts = append(opts, elastic.WithBasicAuth(username, password))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrPasswordNotAvailable
	}

	_, _ = fmt.Fprint(w, "Password: ")
	bytePassword, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(bytePassword), nil
}
