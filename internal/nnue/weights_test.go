package nnue

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestSaveLoadWeightsRoundTrip(t *testing.T) {
	n := NewNetwork()
	n.InitRandom(7)

	var buf bytes.Buffer
	if err := n.saveWeightsTo(&buf); err != nil {
		t.Fatalf("saveWeightsTo: %v", err)
	}

	loaded := NewNetwork()
	if err := loaded.LoadWeightsFromReader(&buf); err != nil {
		t.Fatalf("LoadWeightsFromReader: %v", err)
	}

	if loaded.L1Weights != n.L1Weights {
		t.Error("L1 weights did not round-trip")
	}
	if loaded.L1Bias != n.L1Bias {
		t.Error("L1 bias did not round-trip")
	}
	if loaded.L2Weights != n.L2Weights {
		t.Error("L2 weights did not round-trip")
	}
	if loaded.OutputBias != n.OutputBias {
		t.Error("output bias did not round-trip")
	}
}

func TestLoadWeightsRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	header := FileHeader{Magic: 0xdeadbeef, Version: Version, L1Size: L1Size, L2Size: L2Size}
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		t.Fatalf("binary.Write: %v", err)
	}

	n := NewNetwork()
	if err := n.LoadWeightsFromReader(&buf); err == nil {
		t.Error("expected an error loading a file with a bad magic number")
	}
}
