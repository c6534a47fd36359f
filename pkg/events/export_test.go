package events

func NewKafkaPublisherWithWriter(w messageWriter) *KafkaPublisher {
	return newKafkaPublisher(w)
}
