package tool

import "testing"

func TestCatalogSnapshotValidate(t *testing.T) {
	tests := []struct {
		name    string
		snap    *CatalogSnapshot
		wantErr bool
	}{
		{
			name: "empty snapshot is valid",
			snap: NewEmptyCatalogSnapshot(),
		},
		{
			name: "matching key is valid",
			snap: &CatalogSnapshot{
				ToolsByName: map[string]Descriptor{
					"GET_foo": {ToolName: "GET_foo"},
				},
			},
		},
		{
			name: "mismatched key is invalid",
			snap: &CatalogSnapshot{
				ToolsByName: map[string]Descriptor{
					"GET_foo": {ToolName: "GET_bar"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDescriptorValidate(t *testing.T) {
	d := Descriptor{}
	if err := d.Validate(); err == nil {
		t.Error("expected error for empty toolName")
	}

	d.ToolName = "GET_foo"
	if err := d.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
