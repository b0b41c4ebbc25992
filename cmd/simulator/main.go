package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
	"solarcleaner/internal/sim"
)

// statusPublisher adapts the paho client to the simulator.
type statusPublisher struct {
	cli   paho.Client
	topic string
	qos   byte
}

func (p statusPublisher) PublishStatus(payload string) error {
	token := p.cli.Publish(p.topic, p.qos, false, payload)
	token.Wait()
	return token.Error()
}

func main() {
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	var (
		commandTopic = viper.GetString("mqtt.command_topic")
		statusTopic  = viper.GetString("mqtt.status_topic")
		qos          = byte(viper.GetUint("mqtt.qos"))
	)

	var robot *sim.Robot

	opts := paho.NewClientOptions().
		AddBroker(viper.GetString("mqtt.broker")).
		SetClientID("robot-sim-" + uuid.NewString()[:8])
	opts.AutoReconnect = true
	opts.OnConnect = func(c paho.Client) {
		log.Infow("simulator connected", "command_topic", commandTopic)
		token := c.Subscribe(commandTopic, qos, func(_ paho.Client, msg paho.Message) {
			robot.HandleCommand(models.DeviceCommand(strings.TrimSpace(string(msg.Payload()))))
		})
		if token.Wait() && token.Error() != nil {
			log.Errorw("command topic subscribe failed", "err", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorw("mqtt connection lost", "err", err)
	}

	cli := paho.NewClient(opts)
	robot = sim.NewRobot(sim.Config{
		Travel:      viper.GetDuration("simulator.travel"),
		Steps:       viper.GetInt("simulator.steps"),
		ReturnDelay: viper.GetDuration("simulator.return_delay"),
	}, statusPublisher{cli: cli, topic: statusTopic, qos: qos}, log)

	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalw("failed to connect to mqtt broker", "err", token.Error())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cli.Disconnect(250)
}

func loadConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")

	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.command_topic", "robot/command")
	viper.SetDefault("mqtt.status_topic", "robot/status")
	viper.SetDefault("simulator.travel", 30*time.Second)
	viper.SetDefault("simulator.steps", 10)
	viper.SetDefault("simulator.return_delay", 5*time.Second)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return viper.ReadInConfig()
}
