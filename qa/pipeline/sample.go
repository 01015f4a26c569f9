package pipeline

// SampleQuestion and SampleContext reproduce the classic BERT-large example.
const (
	SampleQuestion = "How many parameters does BERT-large have?"
	SampleContext  = "BERT-large is really big... it has 24-layers and an embedding size of 1,024, " +
		"for a total of 340M parameters! Altogether it is 1.34GB, so expect it to take a couple " +
		"minutes to download to your Colab instance."
)
