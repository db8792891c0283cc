package llm

import "testing"

func TestUnmarshalArguments(t *testing.T) {
	type args struct {
		SlideIndex int    `json:"slideIndex"`
		Title      string `json:"title"`
	}

	tests := []struct {
		name    string
		data    string
		want    args
		wantErr bool
	}{
		{
			name: "well formed",
			data: `{"slideIndex": 2, "title": "Intro"}`,
			want: args{SlideIndex: 2, Title: "Intro"},
		},
		{
			name: "trailing comma repaired",
			data: `{"slideIndex": 2, "title": "Intro",}`,
			want: args{SlideIndex: 2, Title: "Intro"},
		},
		{
			name: "unquoted keys repaired",
			data: `{slideIndex: 1, title: "Next"}`,
			want: args{SlideIndex: 1, Title: "Next"},
		},
		{
			name:    "type mismatch is not repairable",
			data:    `{"slideIndex": "two"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got args
			err := UnmarshalArguments([]byte(tt.data), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalArguments err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("UnmarshalArguments = %+v, want %+v", got, tt.want)
			}
		})
	}
}
