package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyFleetDBType string = "FLEET_DB_TYPE"
	EnvKeyFleetDbPath string = "FLEET_DB_PATH"

	EnvKeyFleetHttpHostPort string = "FLEET_HTTP_HOST_PORT"
	EnvKeyFleetGrpcHostPort string = "FLEET_GRPC_HOST_PORT"

	EnvKeyFleetDefaultRate  string = "FLEET_DEFAULT_RATE"
	EnvKeyFleetDefaultBurst string = "FLEET_DEFAULT_BURST"

	EnvKeyFleetTickInterval string = "FLEET_TICK_INTERVAL"
	EnvKeyFleetWsSendBuffer string = "FLEET_WS_SEND_BUFFER"
	EnvKeyFleetApiToken     string = "FLEET_API_TOKEN"

	EnvKeyFleetMqttBroker   string = "FLEET_MQTT_BROKER"
	EnvKeyFleetMqttClientID string = "FLEET_MQTT_CLIENT_ID"
	EnvKeyFleetMqttUser     string = "FLEET_MQTT_USER"
	EnvKeyFleetMqttPassword string = "FLEET_MQTT_PASSWORD"

	LoggerNameFleetCore     string = "fleet_core"
	LoggerNameStatusMutator string = "status_mutator"
	LoggerNameHub           string = "hub"
	LoggerNameWsServer      string = "ws_server"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameRelay         string = "relay"
	LoggerNameStatusClient  string = "status_client"
	LoggerNameDB            string = "db"

	LoggerFieldFleetCategory       string = "category"
	LoggerCategoryFleetRobot       string = "robot"
	LoggerCategoryFleetWorkset     string = "workset"
	LoggerCategoryFleetAudit       string = "audit"
	LoggerCategoryFleetMaintenance string = "maintenance"
	LoggerCategoryFleetTelemetry   string = "telemetry"
)
