package process

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name     string
		override string
		docTypes []string
		texts    []string
		want     string
	}{
		{
			name:     "override wins",
			override: Licensing,
			docTypes: []string{"Articles of Association"},
			want:     Licensing,
		},
		{
			name:     "doc types first",
			docTypes: []string{"Board Resolution", "Memorandum of Association"},
			texts:    []string{"commercial licence application"},
			want:     CompanyIncorporation,
		},
		{
			name:     "falls back to raw text",
			docTypes: []string{"Unknown"},
			texts:    []string{"Application for incorporation of a private company limited by shares."},
			want:     CompanyIncorporation,
		},
		{
			name:     "licensing from text",
			docTypes: []string{"Unknown"},
			texts:    []string{"Renewal of the operating licence for the branch."},
			want:     Licensing,
		},
		{
			name: "nothing recognized",
			want: Unknown,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.override, tc.docTypes, tc.texts); got != tc.want {
				t.Errorf("Detect = %q, want %q", got, tc.want)
			}
		})
	}
}
