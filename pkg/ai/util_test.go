package ai

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type concept struct {
		Name       string `json:"name"`
		Definition string `json:"definition,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  concept
	}{
		{
			name:  "valid json object",
			input: `{"name":"Habitus"}`,
			want:  concept{Name: "Habitus"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{name: 'Habitus'}`,
			want:  concept{Name: "Habitus"},
		},
		{
			name:  "trailing comma",
			input: `{"name":"Habitus",}`,
			want:  concept{Name: "Habitus"},
		},
		{
			name:  "missing endbracket",
			input: `{"name":"Habitus`,
			want:  concept{Name: "Habitus"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{name: 'Habitus'}"`,
			want:  concept{Name: "Habitus"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"name\": \"Habitus\"\n}\n",
			want:  concept{Name: "Habitus"},
		},
		{
			name:  "duplicate leading brace no newlines",
			input: `{ { "name": "Habitus" }`,
			want:  concept{Name: "Habitus"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got concept
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Name != tc.want.Name || got.Definition != tc.want.Definition {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	type concept struct {
		Name string `json:"name"`
	}

	input := `[{name:'A'},{name:'B',}]`
	var got []concept
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("UnmarshalFlexible() got = %+v, want two concepts A,B", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type concept struct {
		Name string `json:"name"`
	}

	var got concept
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestUnmarshalFlexible_DoubleEncoded(t *testing.T) {
	type extraction struct {
		Name     string   `json:"name"`
		Related  []string `json:"related"`
		Strength float64  `json:"strength"`
	}

	tests := []struct {
		name  string
		input string
		want  extraction
	}{
		{
			name:  "simple stringified",
			input: `"{ \"name\": \"Paradigm Shift\", \"related\": [ \"Normal Science\", \"Anomaly\" ], \"strength\": 4 }"`,
			want:  extraction{Name: "Paradigm Shift", Related: []string{"Normal Science", "Anomaly"}, Strength: 4},
		},
		{
			name:  "stringified with newlines",
			input: `"{\n  \"name\": \"Paradigm Shift\",\n  \"related\": [\"Normal Science\", \"Anomaly\"],\n  \"strength\": 4\n  }\n"`,
			want:  extraction{Name: "Paradigm Shift", Related: []string{"Normal Science", "Anomaly"}, Strength: 4},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got extraction
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Name != tc.want.Name || got.Strength != tc.want.Strength {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
			if len(got.Related) != len(tc.want.Related) {
				t.Fatalf("UnmarshalFlexible() related length got = %d, want %d", len(got.Related), len(tc.want.Related))
			}
			for i := range got.Related {
				if got.Related[i] != tc.want.Related[i] {
					t.Fatalf("UnmarshalFlexible() related[%d] = %q, want %q", i, got.Related[i], tc.want.Related[i])
				}
			}
		})
	}
}
