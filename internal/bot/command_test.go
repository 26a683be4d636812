package bot

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		text     string
		ok       bool
		name     string
		wantArgs int
	}{
		{"!예측 alice", true, CmdPredict, 1},
		{"  !predict alice  ", true, CmdPredict, 1},
		{"!Predict", true, CmdPredict, 0},
		{"!help", true, CmdHelp, 0},
		{"!도움말", true, CmdHelp, 0},
		{"!", true, CmdHelp, 0},
		{"!체스 시작", true, CmdUnknown, 1},
		{"예측 alice", false, "", 0},
		{"", false, "", 0},
	}
	for _, tc := range cases {
		cmd, ok := ParseCommand("!", tc.text)
		if ok != tc.ok || cmd.Name != tc.name || len(cmd.Args) != tc.wantArgs {
			t.Fatalf("ParseCommand(%q) = %+v, %v", tc.text, cmd, ok)
		}
	}
	if _, ok := ParseCommand("", "!help"); ok {
		t.Fatalf("empty prefix must not match")
	}
}
