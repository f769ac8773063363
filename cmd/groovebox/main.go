// Command groovebox is the CLI entry point: play opens a realtime audio
// device and runs a status monitor; render renders the built-in demo
// pattern to a WAV file offline; demo prints that pattern's step layout;
// state inspects the persisted app_state.txt. Grounded on the teacher's
// flag-based cmd/tracker/main.go, generalized from flag to
// github.com/spf13/cobra subcommands plus github.com/spf13/viper
// configuration, the way the rest of the example pack's CLIs are built.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/appstate"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/audio"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/driver"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/status"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/wavfile"

	tea "github.com/charmbracelet/bubbletea"
	goaudio "github.com/go-audio/audio"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "groovebox"})

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "groovebox",
		Short: "Real-time step-sequenced groovebox engine",
	}
	root.PersistentFlags().Int("sample-rate", 48000, "sample rate in Hz")
	root.PersistentFlags().String("state-file", "app_state.txt", "path to the persisted app_state.txt")
	viper.BindPFlag("sample_rate", root.PersistentFlags().Lookup("sample-rate"))
	viper.BindPFlag("state_file", root.PersistentFlags().Lookup("state-file"))
	viper.SetEnvPrefix("groovebox")
	viper.AutomaticEnv()

	root.AddCommand(newPlayCmd(), newRenderCmd(), newDemoCmd(), newStateCmd())
	return root
}

func buildDemoOrchestrator(sampleRate int) *audio.Orchestrator {
	orch := audio.NewOrchestrator(float64(sampleRate), rand.Intn)
	orch.Transport.SetBPM(120)
	orch.Transport.Playing = true

	track := orch.Tracks[0]
	track.MainSequencer.Steps[0].Active = true
	track.MainSequencer.Steps[0].Notes = []groove.NoteEvent{{Pitch: 60, Velocity: 110}}
	track.MainSequencer.Steps[4].Active = true
	track.MainSequencer.Steps[4].Notes = []groove.NoteEvent{{Pitch: 64, Velocity: 100}}
	track.MainSequencer.Steps[8].Active = true
	track.MainSequencer.Steps[8].Notes = []groove.NoteEvent{{Pitch: 67, Velocity: 100}}
	track.MainSequencer.Steps[12].Active = true
	track.MainSequencer.Steps[12].Notes = []groove.NoteEvent{{Pitch: 64, Velocity: 90}}

	// Second track exercises the arpeggiator: three held notes in UP mode,
	// sent to the overdrive and delay slots alongside track 0's melody.
	arpTrack := orch.Tracks[1]
	arpTrack.Arp.Mode = groove.ArpUp
	arpTrack.Arp.Rate = 0.5
	arpTrack.Arp.Octaves = 1
	arpTrack.Sends[groove.FxOverdrive] = 0.6
	arpTrack.Sends[groove.FxDelay] = 0.3
	arpTrack.Arp.AddNote(48)
	arpTrack.Arp.AddNote(52)
	arpTrack.Arp.AddNote(55)

	return orch
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Open a realtime audio device and play the built-in demo pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			sampleRate := viper.GetInt("sample_rate")
			orch := buildDemoOrchestrator(sampleRate)

			out, err := driver.Open(orch, sampleRate)
			if err != nil {
				return fmt.Errorf("open audio device: %w", err)
			}
			defer out.Close()

			fields := status.NewFields()
			monitor := status.NewMonitor(fields)
			go func() {
				for {
					orch.PublishStatus(fields)
					time.Sleep(16 * time.Millisecond)
				}
			}()

			logger.Info("playing demo pattern", "sample_rate", sampleRate)
			_, err = tea.NewProgram(monitor).Run()
			return err
		},
	}
}

func newRenderCmd() *cobra.Command {
	var seconds float64
	var outPath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the built-in demo pattern to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sampleRate := viper.GetInt("sample_rate")
			orch := buildDemoOrchestrator(sampleRate)

			totalFrames := int(seconds * float64(sampleRate))
			const blockFrames = 512
			left := make([]float64, 0, totalFrames)
			right := make([]float64, 0, totalFrames)
			blockL := make([]float64, blockFrames)
			blockR := make([]float64, blockFrames)

			for len(left) < totalFrames {
				n := blockFrames
				if remaining := totalFrames - len(left); remaining < n {
					n = remaining
				}
				orch.RenderBlock(blockL[:n], blockR[:n])
				left = append(left, blockL[:n]...)
				right = append(right, blockR[:n]...)
			}

			interleaved := make([]float64, 0, len(left)*2)
			for i := range left {
				interleaved = append(interleaved, left[i], right[i])
			}
			buf := &goaudio.FloatBuffer{
				Format: &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
				Data:   interleaved,
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			defer f.Close()

			if err := wavfile.Save(f, buf, sampleRate, 2, nil); err != nil {
				return fmt.Errorf("save wav: %w", err)
			}
			logger.Info("rendered", "path", outPath, "seconds", seconds)
			return nil
		},
	}
	cmd.Flags().Float64Var(&seconds, "seconds", 4, "duration to render")
	cmd.Flags().StringVar(&outPath, "out", "render.wav", "output WAV path")
	return cmd
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print the built-in demo pattern's step layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := buildDemoOrchestrator(48000)
			track := orch.Tracks[0]
			out := cmd.OutOrStdout()
			for i, step := range track.MainSequencer.Steps[:track.MainSequencer.Length()] {
				if step.Active {
					fmt.Fprintf(out, "step %2d: %d notes\n", i, len(step.Notes))
				}
			}
			arpTrack := orch.Tracks[1]
			fmt.Fprintf(out, "arp: mode=%d rate=%.2f held=%v sends=[overdrive %.2f, delay %.2f]\n",
				arpTrack.Arp.Mode, arpTrack.Arp.Rate, arpTrack.Arp.HeldNotes(),
				arpTrack.Sends[groove.FxOverdrive], arpTrack.Sends[groove.FxDelay])
			return nil
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the persisted app_state.txt contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("state_file")
			s, err := appstate.LoadFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(s.Tracks) == 0 {
				fmt.Fprintln(out, "(no persisted track projects)")
				return nil
			}
			for _, t := range s.Tracks {
				fmt.Fprintf(out, "track %d: %s\n", t.TrackIndex, t.Path)
			}
			return nil
		},
	}
}
