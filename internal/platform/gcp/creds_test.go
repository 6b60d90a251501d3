package gcp

import "testing"

func TestClientOptionsCredentials(t *testing.T) {
	cases := []struct {
		name  string
		creds string
		want  int
	}{
		{"default credentials", "", 2},
		{"inline json", `{"type":"service_account"}`, 3},
		{"key file", "/etc/keys/sa.json", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ObjectStorageConfig{Mode: ObjectStorageModeGCS, Credentials: tc.creds}.clientOptions()
			if len(got) != tc.want {
				t.Fatalf("options: got=%d want=%d", len(got), tc.want)
			}
		})
	}
}
