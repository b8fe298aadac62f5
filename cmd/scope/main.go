// Command scope runs the virtual oscilloscope pipeline from a terminal:
// it wires a sample source into a channel, prints live measurements and
// optionally streams frames to websocket clients for plotting.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dudk/scope"
	"github.com/dudk/scope/dsp"
	"github.com/dudk/scope/log"
	"github.com/dudk/scope/mock"
	"github.com/dudk/scope/portaudio"
	"github.com/dudk/scope/serial"
	"github.com/dudk/scope/units"
	"github.com/dudk/scope/wav"
	"github.com/dudk/scope/ws"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "scope",
	Short: "virtual oscilloscope signal pipeline",
	Long: `Scope streams raw samples from an acquisition source through the
triggering and spectral-analysis pipeline and publishes frames and
measurements to the console and to websocket clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./scope.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().String("source", "mock", "sample source: mock, serial, wav or portaudio")
	rootCmd.Flags().String("serial-port", "/dev/ttyACM0", "serial port of the acquisition board")
	rootCmd.Flags().Int("baud-rate", 250000, "serial baud rate")
	rootCmd.Flags().Float64("vref", 5.0, "ADC reference voltage")
	rootCmd.Flags().String("wav", "", "wav file to replay")
	rootCmd.Flags().Int("sample-rate", 44100, "portaudio sample rate (Hz)")
	rootCmd.Flags().Int("chunk-size", 64, "samples per chunk for wav and portaudio sources")

	rootCmd.Flags().Int("frame-length", scope.DefaultFrameLength, "emitted frame length in samples")
	rootCmd.Flags().String("trigger", "none", "trigger mode: none, single, rise, fall or risefall")
	rootCmd.Flags().Float64("threshold", 0, "trigger threshold")
	rootCmd.Flags().Float64("pretrigger", 0, "pretrigger fraction [0, 1)")
	rootCmd.Flags().Float64("hoffset", 0, "horizontal offset fraction [-0.05, 0.05)")
	rootCmd.Flags().Bool("single-shot", false, "capture one frame in single mode, then pause the channel")
	rootCmd.Flags().Float64("vscale", 1, "vertical scale")
	rootCmd.Flags().Float64("voffset", 0, "vertical offset")
	rootCmd.Flags().Float64("period", 0, "sampling period in seconds (0 derives it from the source)")

	rootCmd.Flags().Bool("fft", false, "start in frequency mode")
	rootCmd.Flags().Int("fft-size", 1024, "FFT block size, power of two >= 128")
	rootCmd.Flags().String("window", "hann", "FFT window: rect, hann or hamming")
	rootCmd.Flags().String("fft-scale", "vrms", "spectrum scale: vrms or dbv")
	rootCmd.Flags().Float64("span", 1000, "frequency span (Hz)")
	rootCmd.Flags().Float64("center", 500, "center frequency (Hz)")

	rootCmd.Flags().String("listen", "", "websocket listen address, e.g. :8080 (empty disables)")

	viper.BindPFlag("source.kind", rootCmd.Flags().Lookup("source"))
	viper.BindPFlag("source.serial_port", rootCmd.Flags().Lookup("serial-port"))
	viper.BindPFlag("source.baud_rate", rootCmd.Flags().Lookup("baud-rate"))
	viper.BindPFlag("source.vref", rootCmd.Flags().Lookup("vref"))
	viper.BindPFlag("source.wav_path", rootCmd.Flags().Lookup("wav"))
	viper.BindPFlag("source.sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("source.chunk_size", rootCmd.Flags().Lookup("chunk-size"))
	viper.BindPFlag("channel.frame_length", rootCmd.Flags().Lookup("frame-length"))
	viper.BindPFlag("channel.trigger_mode", rootCmd.Flags().Lookup("trigger"))
	viper.BindPFlag("channel.threshold", rootCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("channel.pretrigger", rootCmd.Flags().Lookup("pretrigger"))
	viper.BindPFlag("channel.horizontal_offset", rootCmd.Flags().Lookup("hoffset"))
	viper.BindPFlag("channel.single_shot", rootCmd.Flags().Lookup("single-shot"))
	viper.BindPFlag("channel.vertical_scale", rootCmd.Flags().Lookup("vscale"))
	viper.BindPFlag("channel.vertical_offset", rootCmd.Flags().Lookup("voffset"))
	viper.BindPFlag("channel.sampling_period", rootCmd.Flags().Lookup("period"))
	viper.BindPFlag("fft.enabled", rootCmd.Flags().Lookup("fft"))
	viper.BindPFlag("fft.size", rootCmd.Flags().Lookup("fft-size"))
	viper.BindPFlag("fft.window", rootCmd.Flags().Lookup("window"))
	viper.BindPFlag("fft.scale", rootCmd.Flags().Lookup("fft-scale"))
	viper.BindPFlag("fft.span", rootCmd.Flags().Lookup("span"))
	viper.BindPFlag("fft.center", rootCmd.Flags().Lookup("center"))
	viper.BindPFlag("server.listen", rootCmd.Flags().Lookup("listen"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("scope")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("scope")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

func run() error {
	logger := log.GetLogger()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	src, samplingPeriod, closeSource, err := buildSource()
	if err != nil {
		return err
	}
	defer closeSource()

	if p := viper.GetFloat64("channel.sampling_period"); p > 0 {
		samplingPeriod = p
	}
	if samplingPeriod <= 0 {
		samplingPeriod = 1
	}

	mode, err := scope.ParseTriggerMode(viper.GetString("channel.trigger_mode"))
	if err != nil {
		return err
	}
	ch, err := scope.NewChannel(
		scope.WithName("ch1"),
		scope.WithLogger(logger),
		scope.WithConfig(scope.Config{
			FrameLength: viper.GetInt("channel.frame_length"),
			Trigger: scope.TriggerConfig{
				Mode:                     mode,
				Threshold:                viper.GetFloat64("channel.threshold"),
				PretriggerFraction:       viper.GetFloat64("channel.pretrigger"),
				HorizontalOffsetFraction: viper.GetFloat64("channel.horizontal_offset"),
				SingleShot:               viper.GetBool("channel.single_shot"),
			},
			VerticalScale:  viper.GetFloat64("channel.vertical_scale"),
			VerticalOffset: viper.GetFloat64("channel.vertical_offset"),
			SamplingPeriod: samplingPeriod,
		}),
	)
	if err != nil {
		return err
	}

	unit := "V"
	if viper.GetBool("fft.enabled") {
		window, err := dsp.ParseWindow(viper.GetString("fft.window"))
		if err != nil {
			return err
		}
		scale, err := scope.ParseScale(viper.GetString("fft.scale"))
		if err != nil {
			return err
		}
		if err := ch.SwitchToFrequencyMode(scope.FFTConfig{
			Window:         window,
			Scale:          scale,
			Size:           viper.GetInt("fft.size"),
			SpanHz:         viper.GetFloat64("fft.span"),
			CenterHz:       viper.GetFloat64("fft.center"),
			SamplingPeriod: samplingPeriod,
		}); err != nil {
			return err
		}
		fMin, fMax, _ := ch.FrequencyRange()
		logger.Info("frequency mode: ", units.Format(fMin, "Hz"), " to ", units.Format(fMax, "Hz"))
		if scale == scope.ScaleDBV {
			unit = "dBV"
		}
	}

	unsubFeed := src.Subscribe(ch.Feed)
	defer unsubFeed()

	measurements := []*scope.Measurement{
		scope.NewMeasurement(ch, scope.Max),
		scope.NewMeasurement(ch, scope.Min),
		scope.NewMeasurement(ch, scope.RMS),
	}
	defer func() {
		for _, m := range measurements {
			m.Unbind()
		}
	}()

	if listen := viper.GetString("server.listen"); listen != "" {
		sink := ws.NewSink()
		defer sink.Close()
		ch.OnFrame(sink.HandleFrame(ch.Name()))
		for _, m := range measurements {
			m.OnValue(sink.HandleValue(ch.Name(), m.Statistic()))
		}
		go func() {
			logger.Info("websocket sink listening on ", listen)
			if err := http.ListenAndServe(listen, sink); err != nil {
				logger.Info("websocket sink: ", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- src.Run(ctx)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			printMeasurements(ch, measurements, unit)
		case err := <-errc:
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		case <-ctx.Done():
			logger.Info("shutting down")
			<-errc
			return nil
		}
	}
}

// buildSource constructs the configured source and returns it with its
// sampling period (0 if unknown) and a cleanup func.
func buildSource() (scope.Source, float64, func(), error) {
	chunkSize := viper.GetInt("source.chunk_size")
	switch kind := viper.GetString("source.kind"); kind {
	case "mock":
		return &mock.Source{}, 0, func() {}, nil
	case "serial":
		src, err := serial.Open(
			viper.GetString("source.serial_port"),
			viper.GetInt("source.baud_rate"),
			viper.GetFloat64("source.vref"),
		)
		if err != nil {
			return nil, 0, nil, err
		}
		return src, 0, func() { src.Close() }, nil
	case "wav":
		src, err := wav.NewSource(viper.GetString("source.wav_path"), chunkSize)
		if err != nil {
			return nil, 0, nil, err
		}
		src.Realtime = true
		return src, src.SamplingPeriod(), func() { src.Close() }, nil
	case "portaudio":
		src := portaudio.NewSource(viper.GetInt("source.sample_rate"), chunkSize)
		return src, src.SamplingPeriod(), func() {}, nil
	default:
		return nil, 0, nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

func printMeasurements(ch *scope.Channel, measurements []*scope.Measurement, unit string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"channel", "statistic", "value"})
	for _, m := range measurements {
		table.Append([]string{ch.Name(), m.Statistic().String(), units.Format(m.Value(), unit)})
	}
	table.Render()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
