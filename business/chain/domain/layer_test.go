package domain

import "testing"

func TestParseLayer(t *testing.T) {
	tests := []struct {
		in      string
		want    Layer
		wantErr bool
	}{
		{"2", LayerTwo, false},
		{"L2", LayerTwo, false},
		{" two ", LayerTwo, false},
		{"3", LayerThree, false},
		{"l3", LayerThree, false},
		{"THREE", LayerThree, false},
		{"4", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLayer(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayer_NextAndString(t *testing.T) {
	if LayerTwo.Next() != LayerThree || LayerThree.Next() != LayerTwo {
		t.Error("Next should cycle between layers")
	}
	if LayerTwo.String() != "L2" || LayerThree.String() != "L3" {
		t.Errorf("unexpected names %s, %s", LayerTwo, LayerThree)
	}
	if LayerTwo.Key() != "two" || LayerThree.Key() != "three" {
		t.Errorf("unexpected keys %s, %s", LayerTwo.Key(), LayerThree.Key())
	}
	if Layer(7).Valid() {
		t.Error("Layer(7) should be invalid")
	}
}

func TestNetwork_DialURL(t *testing.T) {
	n := Network{RPCURL: "http://node:8545"}
	if n.DialURL() != "http://node:8545" {
		t.Errorf("got %s", n.DialURL())
	}
	n.WSURL = "ws://node:8546"
	if n.DialURL() != "ws://node:8546" {
		t.Errorf("got %s, want ws url", n.DialURL())
	}
}
