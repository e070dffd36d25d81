package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/mujoco-runtime/sim"
)

func parseControls(s string) ([]float64, error) {
	var values []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", f, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func printModel(w io.Writer, m *sim.Model) error {
	bodies, err := m.Bodies()
	if err != nil {
		return err
	}
	geoms, err := m.Geoms()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Bodies: %d  Geoms: %d  Meshes: %d\n", m.NBody(), m.NGeom(), m.NMesh())
	fmt.Fprintf(w, "DOF: %d  Coordinates: %d  Actuators: %d  Sensor channels: %d\n",
		m.NV(), m.NQ(), m.NU(), m.NSensorData())

	fmt.Fprintf(w, "\nBodies:\n")
	for _, b := range bodies {
		render := "-"
		if g, ok := b.RenderGeom(geoms); ok {
			render = g.Type.String()
			if g.Name != "" {
				render += " " + g.Name
			}
		}
		fmt.Fprintf(w, "  %3d %-16s parent=%-3d geoms=%d render=%s\n",
			b.ID, displayName(b.Name), b.ParentID, b.GeomNum, render)
	}
	return nil
}

func printState(w io.Writer, s *sim.Simulation) error {
	bodies, err := s.Model().Bodies()
	if err != nil {
		return err
	}
	pos, err := s.BodyPositions()
	if err != nil {
		return err
	}
	sensors, err := s.SensorReadings()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTime: %.4f\n", s.Time())
	for i, b := range bodies {
		fmt.Fprintf(w, "  %-16s %s\n", displayName(b.Name), formatVec(pos[i][:]))
	}
	if len(sensors) > 0 {
		fmt.Fprintf(w, "Sensors: %s\n", formatVec(sensors))
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', 4, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
