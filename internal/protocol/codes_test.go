package protocol

import "testing"

func TestCodeRegistryNames(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status success", StatusSuccess.String(), "success"},
		{"status time out", StatusTimeout.String(), "time out"},
		{"status unknown code", DeviceCloudStatus(0xFF).String(), "unknown (0xFF)"},
		{"frame error checksum", FrameErrInvalidChecksum.String(), "erroneous checksum"},
		{"frame error unknown code", FrameErrorCode(0x99).String(), "unknown (0x99)"},
		{"option overwrite", OptionOverwrite.String(), "overwrite"},
		{"option unknown code", SendDataOption(0x44).String(), "unknown (0x44)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("String() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestCodeRegistryTotality(t *testing.T) {
	// Every byte value resolves to some symbol and re-encodes to itself.
	for c := 0; c <= 0xFF; c++ {
		s := DeviceCloudStatus(c)
		if s.String() == "" {
			t.Fatalf("status 0x%02X has empty name", c)
		}
		if uint8(s) != uint8(c) {
			t.Fatalf("status 0x%02X did not round-trip", c)
		}
	}
}

func TestCodeRegistryRegistered(t *testing.T) {
	if !StatusCanceled.Registered() {
		t.Error("canceled should be registered")
	}
	if DeviceCloudStatus(0x41).Registered() {
		t.Error("0x41 should not be registered")
	}
	if !OptionTransient.Registered() {
		t.Error("transient should be registered")
	}
	if !FrameErrWrongRequestID.Registered() {
		t.Error("wrong request ID should be registered")
	}
}

func TestFrameTypeName(t *testing.T) {
	if got := FrameTypeName(FrameTypeSendDataRequest); got != "SendDataRequest" {
		t.Errorf("name = %q, want SendDataRequest", got)
	}
	if got := FrameTypeName(0x00); got != "Unknown(0x00)" {
		t.Errorf("name = %q, want Unknown(0x00)", got)
	}
}
