package story

import "testing"

func TestWorld_Validate(t *testing.T) {
	tests := []struct {
		name    string
		world   World
		wantErr bool
	}{
		{
			name:  "valid",
			world: World{ID: "harbor", Name: "The Drowned Harbor", Intro: "Salt fog and old debts."},
		},
		{
			name:    "missing id",
			world:   World{Name: "The Drowned Harbor", Intro: "Salt fog."},
			wantErr: true,
		},
		{
			name:    "whitespace id",
			world:   World{ID: "   ", Name: "The Drowned Harbor", Intro: "Salt fog."},
			wantErr: true,
		},
		{
			name:    "missing name",
			world:   World{ID: "harbor", Intro: "Salt fog."},
			wantErr: true,
		},
		{
			name:    "missing intro",
			world:   World{ID: "harbor", Name: "The Drowned Harbor"},
			wantErr: true,
		},
		{
			name:  "tone and hint optional",
			world: World{ID: "harbor", Name: "The Drowned Harbor", Intro: "Salt fog."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.world.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
