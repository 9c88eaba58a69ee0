package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/torvik/cloudlink/internal/config"
	"github.com/torvik/cloudlink/internal/protocol"
)

var (
	modeFlag string
	bodyOnly bool

	// build flags, shared across the per-kind subcommands
	frameID     int
	requestID   int
	target      string
	payloadHex  string
	path        string
	contentType string
	optionName  string
	statusCode  int
	errorCode   int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "",
		"Operating mode: api or escaped (default from config file)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(codesCmd)
}

// resolveMode picks the operating mode from the --mode flag, falling back to
// the config file.
func resolveMode() (protocol.OperatingMode, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}
	if modeFlag != "" {
		cfg.Mode = modeFlag
	}
	return cfg.OperatingMode()
}

func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

func printPacket(pkt protocol.Packet) {
	fmt.Printf("%s (0x%02X)\n", protocol.FrameTypeName(pkt.FrameType()), pkt.FrameType())
	for _, f := range pkt.View() {
		switch v := f.Value.(type) {
		case []byte:
			if v == nil {
				fmt.Printf("  %-14s (absent)\n", f.Name)
			} else {
				fmt.Printf("  %-14s %s (%d bytes)\n", f.Name, hex.EncodeToString(v), len(v))
			}
		case string:
			fmt.Printf("  %-14s %q\n", f.Name, v)
		default:
			fmt.Printf("  %-14s %v\n", f.Name, v)
		}
	}
}

// printFrame envelopes body (unless --body-only) and prints it as hex.
func printFrame(pkt protocol.Packet, mode protocol.OperatingMode) error {
	body := pkt.Encode()
	if bodyOnly {
		fmt.Println(hex.EncodeToString(body))
		return nil
	}
	raw, err := protocol.Wrap(body, mode)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(raw))
	return nil
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex-frame>",
	Short: "Decode a captured frame",
	Long: `Decode one captured frame given as hex.

By default the input is a complete on-wire frame: start delimiter, length,
body and checksum. With --body-only the envelope step is skipped and the
input is the bare body (frame type byte + fields).`,
	Example: `  # Decode a complete device response status frame
  cloudlink decode 7e0003ba07003e

  # Decode an escaped-mode capture
  cloudlink decode --mode escaped 7e0003ba07003e

  # Decode a bare body
  cloudlink decode --body-only ba0700`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&bodyOnly, "body-only", false,
		"Treat the input as a bare body without envelope")
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := parseHex(args[0])
	if err != nil {
		return err
	}

	body := data
	if !bodyOnly {
		mode, err := resolveMode()
		if err != nil {
			return err
		}
		if body, err = protocol.Strip(data, mode); err != nil {
			return err
		}
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}

	pkt, err := protocol.Decode(body[0], body)
	if err != nil {
		return err
	}
	printPacket(pkt)
	return nil
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a frame and print it as hex",
	Long: `Build one device-cloud frame from field values and print the complete
on-wire frame (or the bare body with --body-only) as hex.`,
}

func init() {
	buildCmd.PersistentFlags().BoolVar(&bodyOnly, "body-only", false,
		"Print the bare body without envelope")

	buildCmd.AddCommand(buildDeviceRequestCmd)
	buildCmd.AddCommand(buildDeviceResponseCmd)
	buildCmd.AddCommand(buildDeviceResponseStatusCmd)
	buildCmd.AddCommand(buildFrameErrorCmd)
	buildCmd.AddCommand(buildSendDataRequestCmd)
	buildCmd.AddCommand(buildSendDataResponseCmd)
}

// buildFrame resolves the mode, builds the packet and prints it.
func buildFrame(construct func() (protocol.Packet, error)) error {
	mode, err := resolveMode()
	if err != nil {
		return err
	}
	pkt, err := construct()
	if err != nil {
		return err
	}
	return printFrame(pkt, mode)
}

var buildDeviceRequestCmd = &cobra.Command{
	Use:   "device-request",
	Short: "Build a DeviceRequest frame",
	Example: `  cloudlink build device-request --request-id 42 --target myTarget --payload 01020304`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildFrame(func() (protocol.Packet, error) {
			payload, err := parseHex(payloadHex)
			if err != nil {
				return nil, err
			}
			return protocol.NewDeviceRequestPacket(requestID, target, payload)
		})
	},
}

func init() {
	buildDeviceRequestCmd.Flags().IntVar(&requestID, "request-id", 0, "Request ID (0-255)")
	buildDeviceRequestCmd.Flags().StringVar(&target, "target", "", "Request target")
	buildDeviceRequestCmd.Flags().StringVar(&payloadHex, "payload", "", "Request data as hex")
}

var buildDeviceResponseCmd = &cobra.Command{
	Use:   "device-response",
	Short: "Build a DeviceResponse frame",
	Example: `  cloudlink build device-response --frame-id 1 --request-id 42 --payload 6f6b`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildFrame(func() (protocol.Packet, error) {
			payload, err := parseHex(payloadHex)
			if err != nil {
				return nil, err
			}
			return protocol.NewDeviceResponsePacket(frameID, requestID, payload)
		})
	},
}

func init() {
	buildDeviceResponseCmd.Flags().IntVar(&frameID, "frame-id", 1, "Frame ID (0-255)")
	buildDeviceResponseCmd.Flags().IntVar(&requestID, "request-id", 0, "Request ID (0-255)")
	buildDeviceResponseCmd.Flags().StringVar(&payloadHex, "payload", "", "Response data as hex")
}

var buildDeviceResponseStatusCmd = &cobra.Command{
	Use:   "device-response-status",
	Short: "Build a DeviceResponseStatus frame",
	Example: `  cloudlink build device-response-status --frame-id 7 --status 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildFrame(func() (protocol.Packet, error) {
			if statusCode < 0 || statusCode > 255 {
				return nil, fmt.Errorf("status must be between 0 and 255, got %d", statusCode)
			}
			return protocol.NewDeviceResponseStatusPacket(frameID,
				protocol.DeviceCloudStatus(statusCode))
		})
	},
}

func init() {
	buildDeviceResponseStatusCmd.Flags().IntVar(&frameID, "frame-id", 1, "Frame ID (0-255)")
	buildDeviceResponseStatusCmd.Flags().IntVar(&statusCode, "status", 0, "Status code (0-255)")
}

var buildFrameErrorCmd = &cobra.Command{
	Use:   "frame-error",
	Short: "Build a FrameError frame",
	Example: `  cloudlink build frame-error --error 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildFrame(func() (protocol.Packet, error) {
			if errorCode < 0 || errorCode > 255 {
				return nil, fmt.Errorf("error code must be between 0 and 255, got %d", errorCode)
			}
			return protocol.NewFrameErrorPacket(protocol.FrameErrorCode(errorCode)), nil
		})
	},
}

func init() {
	buildFrameErrorCmd.Flags().IntVar(&errorCode, "error", 0, "Error code (0-255)")
}

var buildSendDataRequestCmd = &cobra.Command{
	Use:   "send-data-request",
	Short: "Build a SendDataRequest frame",
	Example: `  cloudlink build send-data-request --frame-id 3 --path a.txt \
      --content-type text/plain --options overwrite --payload 0102`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildFrame(func() (protocol.Packet, error) {
			payload, err := parseHex(payloadHex)
			if err != nil {
				return nil, err
			}
			opt, err := parseOption(optionName)
			if err != nil {
				return nil, err
			}
			return protocol.NewSendDataRequestPacket(frameID, path, contentType, opt, payload)
		})
	},
}

func init() {
	buildSendDataRequestCmd.Flags().IntVar(&frameID, "frame-id", 1, "Frame ID (0-255)")
	buildSendDataRequestCmd.Flags().StringVar(&path, "path", "", "Upload path")
	buildSendDataRequestCmd.Flags().StringVar(&contentType, "content-type", "", "Upload content type")
	buildSendDataRequestCmd.Flags().StringVar(&optionName, "options", "overwrite",
		"Upload disposition: overwrite, archive, append or transient")
	buildSendDataRequestCmd.Flags().StringVar(&payloadHex, "payload", "", "File data as hex")
}

var buildSendDataResponseCmd = &cobra.Command{
	Use:   "send-data-response",
	Short: "Build a SendDataResponse frame",
	Example: `  cloudlink build send-data-response --frame-id 3 --status 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildFrame(func() (protocol.Packet, error) {
			if statusCode < 0 || statusCode > 255 {
				return nil, fmt.Errorf("status must be between 0 and 255, got %d", statusCode)
			}
			return protocol.NewSendDataResponsePacket(frameID,
				protocol.DeviceCloudStatus(statusCode))
		})
	},
}

func init() {
	buildSendDataResponseCmd.Flags().IntVar(&frameID, "frame-id", 1, "Frame ID (0-255)")
	buildSendDataResponseCmd.Flags().IntVar(&statusCode, "status", 0, "Status code (0-255)")
}

func parseOption(name string) (protocol.SendDataOption, error) {
	switch strings.ToLower(name) {
	case "overwrite":
		return protocol.OptionOverwrite, nil
	case "archive":
		return protocol.OptionArchive, nil
	case "append":
		return protocol.OptionAppend, nil
	case "transient":
		return protocol.OptionTransient, nil
	default:
		return 0, fmt.Errorf("unknown option %q (expected overwrite, archive, append or transient)", name)
	}
}

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the registered status, error and option codes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Frame types:")
		for _, t := range []byte{
			protocol.FrameTypeSendDataRequest,
			protocol.FrameTypeDeviceResponse,
			protocol.FrameTypeSendDataResponse,
			protocol.FrameTypeDeviceRequest,
			protocol.FrameTypeDeviceResponseStatus,
			protocol.FrameTypeFrameError,
		} {
			fmt.Printf("  0x%02X  %s\n", t, protocol.FrameTypeName(t))
		}

		fmt.Println("\nDevice cloud status codes:")
		for c := 0; c <= 0xFF; c++ {
			if s := protocol.DeviceCloudStatus(c); s.Registered() {
				fmt.Printf("  0x%02X  %s\n", c, s)
			}
		}

		fmt.Println("\nFrame error codes:")
		for c := 0; c <= 0xFF; c++ {
			if e := protocol.FrameErrorCode(c); e.Registered() {
				fmt.Printf("  0x%02X  %s\n", c, e)
			}
		}

		fmt.Println("\nSend data options:")
		for c := 0; c <= 0xFF; c++ {
			if o := protocol.SendDataOption(c); o.Registered() {
				fmt.Printf("  0x%02X  %s\n", c, o)
			}
		}
	},
}
