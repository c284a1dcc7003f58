package capture

import (
	"bufio"
	"bytes"
	"strings"
)

// parsePactlSources turns `pactl list short sources` output into devices.
// Lines are tab-separated: index, name, driver, sample spec, state.
func parsePactlSources(out []byte, defaultSource string) []Device {
	var devs []Device
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		devs = append(devs, Device{
			ID:      fields[0],
			Name:    fields[1],
			Default: defaultSource != "" && fields[1] == defaultSource,
		})
	}
	return devs
}

// parsePipewireNodes turns `pw-cli ls Node` output into devices, keeping
// only Audio/Source nodes. Each node is a block headed by an `id N,` line
// followed by indented key = "value" properties:
//
//	id 42, type PipeWire:Interface:Node/3
//	    node.name = "alsa_input.usb-mic"
//	    node.description = "USB Microphone"
//	    media.class = "Audio/Source"
func parsePipewireNodes(out []byte) []Device {
	var devs []Device
	var id, name, desc, class string
	flush := func() {
		if id == "" || !strings.HasPrefix(class, "Audio/Source") {
			return
		}
		d := Device{ID: id, Name: name}
		if desc != "" {
			d.Name = desc
		}
		devs = append(devs, d)
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "id "); ok {
			flush()
			id, name, desc, class = "", "", "", ""
			if comma := strings.Index(rest, ","); comma >= 0 {
				id = rest[:comma]
			}
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"`)
		switch strings.TrimSpace(key) {
		case "node.name":
			name = val
		case "node.description":
			desc = val
		case "media.class":
			class = val
		}
	}
	flush()
	return devs
}

// parseAVFoundation extracts the audio section of ffmpeg's AVFoundation
// device listing, which ffmpeg prints to stderr:
//
//	[AVFoundation indev @ 0x...] AVFoundation audio devices:
//	[AVFoundation indev @ 0x...] [0] MacBook Pro Microphone
//
// The bracketed index is what -i expects, so it becomes the device ID.
func parseAVFoundation(out []byte) []Device {
	var devs []Device
	inAudio := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, "AVFoundation audio devices"):
			inAudio = true
			continue
		case strings.Contains(line, "AVFoundation video devices"):
			inAudio = false
			continue
		}
		if !inAudio {
			continue
		}
		open := strings.Index(line, "] [")
		if open < 0 {
			continue
		}
		rest := line[open+3:]
		end := strings.Index(rest, "]")
		if end < 0 {
			continue
		}
		devs = append(devs, Device{
			ID:   rest[:end],
			Name: strings.TrimSpace(rest[end+1:]),
		})
	}
	return devs
}

// parseDirectShow extracts the audio section of ffmpeg's dshow device
// listing. Device names are quoted; dshow addresses devices by name, so
// the ID is the ready-to-use "audio=<name>" input spec.
func parseDirectShow(out []byte) []Device {
	var devs []Device
	inAudio := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, "DirectShow audio devices"):
			inAudio = true
			continue
		case strings.Contains(line, "DirectShow video devices"):
			inAudio = false
			continue
		}
		if !inAudio || strings.Contains(line, "Alternative name") {
			continue
		}
		first := strings.Index(line, `"`)
		last := strings.LastIndex(line, `"`)
		if first < 0 || last <= first {
			continue
		}
		name := line[first+1 : last]
		devs = append(devs, Device{ID: "audio=" + name, Name: name})
	}
	return devs
}
