package naming

import "testing"

func TestRendering(t *testing.T) {
	cluster := "test-cluster"

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Network",
			got:      Network(cluster),
			expected: "test-cluster",
		},
		{
			name:     "Firewall",
			got:      Firewall(cluster),
			expected: "test-cluster",
		},
		{
			name:     "Server",
			got:      Server(cluster, "app", 3),
			expected: "test-cluster-app-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, expected %q", tt.got, tt.expected)
			}
		})
	}
}

func TestSplitServer(t *testing.T) {
	tests := []struct {
		name      string
		cluster   string
		server    string
		wantGroup string
		wantIndex int
		wantOK    bool
	}{
		{"simple", "c1", "c1-master-1", "master", 1, true},
		{"multi digit index", "c1", "c1-app-23", "app", 23, true},
		{"dashed group", "c1", "c1-app-pool-3", "app-pool", 3, true},
		{"foreign server", "c1", "unrelated-server", "", 0, false},
		{"prefix only", "c1", "c1-", "", 0, false},
		{"missing index", "c1", "c1-app", "", 0, false},
		{"zero index", "c1", "c1-app-0", "", 0, false},
		{"other cluster", "c1", "c2-app-1", "", 0, false},
		{"cluster is prefix of name", "c1", "c1x-app-1", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, index, ok := SplitServer(tt.cluster, tt.server)
			if ok != tt.wantOK {
				t.Fatalf("SplitServer(%q, %q) ok = %v, want %v", tt.cluster, tt.server, ok, tt.wantOK)
			}
			if group != tt.wantGroup || index != tt.wantIndex {
				t.Errorf("SplitServer(%q, %q) = (%q, %d), want (%q, %d)",
					tt.cluster, tt.server, group, index, tt.wantGroup, tt.wantIndex)
			}
		})
	}
}
