package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Weight file format constants.
const (
	MagicNumber = 0x4e4e5545 // "NNUE"
	Version     = 1
)

// FileHeader is the fixed header preceding the packed weight blocks.
type FileHeader struct {
	Magic   uint32
	Version uint32
	L1Size  uint32
	L2Size  uint32
}

// LoadWeights loads network weights from filename.
//
// File format: FileHeader, then L1Weights, L1Bias, L2Weights, L2Bias,
// OutputWeights, OutputBias, all little-endian.
func (n *Network) LoadWeights(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open weights file: %w", err)
	}
	defer f.Close()
	return n.LoadWeightsFromReader(f)
}

// SaveWeights writes network weights to filename.
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	defer f.Close()
	return n.saveWeightsTo(f)
}

// LoadWeightsFromReader loads network weights from an arbitrary reader,
// e.g. an embedded asset or a network stream.
func (n *Network) LoadWeightsFromReader(r io.Reader) error {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return fmt.Errorf("invalid magic number: expected %#x, got %#x", MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return fmt.Errorf("unsupported version: expected %d, got %d", Version, header.Version)
	}
	if header.L1Size != L1Size {
		return fmt.Errorf("L1 size mismatch: expected %d, got %d", L1Size, header.L1Size)
	}
	if header.L2Size != L2Size {
		return fmt.Errorf("L2 size mismatch: expected %d, got %d", L2Size, header.L2Size)
	}

	for i := 0; i < InputSize; i++ {
		if err := binary.Read(r, binary.LittleEndian, &n.L1Weights[i]); err != nil {
			return fmt.Errorf("read L1 weights at %d: %w", i, err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &n.L1Bias); err != nil {
		return fmt.Errorf("read L1 bias: %w", err)
	}
	for v := 0; v < NumVariants; v++ {
		for i := 0; i < L1Size*2; i++ {
			if err := binary.Read(r, binary.LittleEndian, &n.L2Weights[v][i]); err != nil {
				return fmt.Errorf("read L2 weights at variant %d row %d: %w", v, i, err)
			}
		}
		if err := binary.Read(r, binary.LittleEndian, &n.L2Bias[v]); err != nil {
			return fmt.Errorf("read L2 bias at variant %d: %w", v, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &n.OutputWeights[v]); err != nil {
			return fmt.Errorf("read output weights at variant %d: %w", v, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &n.OutputBias[v]); err != nil {
			return fmt.Errorf("read output bias at variant %d: %w", v, err)
		}
	}
	return nil
}

func (n *Network) saveWeightsTo(w io.Writer) error {
	header := FileHeader{Magic: MagicNumber, Version: Version, L1Size: L1Size, L2Size: L2Size}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < InputSize; i++ {
		if err := binary.Write(w, binary.LittleEndian, &n.L1Weights[i]); err != nil {
			return fmt.Errorf("write L1 weights at %d: %w", i, err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, &n.L1Bias); err != nil {
		return fmt.Errorf("write L1 bias: %w", err)
	}
	for v := 0; v < NumVariants; v++ {
		for i := 0; i < L1Size*2; i++ {
			if err := binary.Write(w, binary.LittleEndian, &n.L2Weights[v][i]); err != nil {
				return fmt.Errorf("write L2 weights at variant %d row %d: %w", v, i, err)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, &n.L2Bias[v]); err != nil {
			return fmt.Errorf("write L2 bias at variant %d: %w", v, err)
		}
		if err := binary.Write(w, binary.LittleEndian, &n.OutputWeights[v]); err != nil {
			return fmt.Errorf("write output weights at variant %d: %w", v, err)
		}
		if err := binary.Write(w, binary.LittleEndian, &n.OutputBias[v]); err != nil {
			return fmt.Errorf("write output bias at variant %d: %w", v, err)
		}
	}
	return nil
}
