package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// seedTask mirrors Task but with literal-friendly test vectors.
type seedTask struct {
	level       Level
	difficulty  int
	title       string
	description string
	examples    string
	starterCode string
	hints       []string
	tags        []string
	timeLimit   int
	tests       []seedTest
}

type seedTest struct {
	input    string // JSON array of positional args
	expected string // JSON return value
	hidden   bool
}

type seedQuestion struct {
	level          Level
	difficulty     int
	category       string
	question       string
	expectedTopics []string
	followUp       []string
	tags           []string
}

// Seed populates the task and question bank. Idempotent: a non-empty catalog
// is left untouched.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coding_tasks").Scan(&count); err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}
	if count == 0 {
		if err := s.seedTasks(ctx); err != nil {
			return err
		}
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM theory_questions").Scan(&count); err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count == 0 {
		if err := s.seedQuestions(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedTasks(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range seedTasks {
		hints, _ := json.Marshal(t.hints)
		tags, _ := json.Marshal(t.tags)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO coding_tasks (level, difficulty, title, description, examples, starter_code, hints, tags, time_limit)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(t.level), t.difficulty, t.title, t.description, t.examples,
			t.starterCode, string(hints), string(tags), t.timeLimit)
		if err != nil {
			return fmt.Errorf("failed to seed task %q: %w", t.title, err)
		}
		taskID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get task id: %w", err)
		}
		for _, tc := range t.tests {
			hidden := 0
			if tc.hidden {
				hidden = 1
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_tests (task_id, input, expected, is_hidden) VALUES (?, ?, ?, ?)`,
				taskID, tc.input, tc.expected, hidden); err != nil {
				return fmt.Errorf("failed to seed test for %q: %w", t.title, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task seed: %w", err)
	}
	s.logger.Info("seeded coding tasks", zap.Int("count", len(seedTasks)))
	return nil
}

func (s *Store) seedQuestions(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range seedQuestions {
		topics, _ := json.Marshal(q.expectedTopics)
		followUp, _ := json.Marshal(q.followUp)
		tags, _ := json.Marshal(q.tags)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO theory_questions (level, difficulty, category, question, expected_topics, follow_up, tags)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(q.level), q.difficulty, q.category, q.question,
			string(topics), string(followUp), string(tags)); err != nil {
			return fmt.Errorf("failed to seed question: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit question seed: %w", err)
	}
	s.logger.Info("seeded theory questions", zap.Int("count", len(seedQuestions)))
	return nil
}

// seedTasks is the coding task bank. Candidates solve in Python; the sandbox
// collaborator executes submissions against these vectors.
var seedTasks = []seedTask{
	{
		level: Junior, difficulty: 1, title: "Sum of Two Numbers",
		description: "Write a function solution(a, b) that returns the sum of two numbers.",
		examples:    "solution(2, 3) -> 5\nsolution(-1, 1) -> 0\nsolution(100, 200) -> 300",
		starterCode: "def solution(a, b):\n    # Your code here\n    pass",
		hints:       []string{"Use the + operator", "return a + b"},
		tags:        []string{"basics", "math"},
		timeLimit:   5,
		tests: []seedTest{
			{input: `[2, 3]`, expected: `5`},
			{input: `[-1, 1]`, expected: `0`},
			{input: `[100, 200]`, expected: `300`},
			{input: `[0, 0]`, expected: `0`, hidden: true},
		},
	},
	{
		level: Junior, difficulty: 2, title: "Reverse a String",
		description: "Write a function solution(s) that returns the reversed string.",
		examples:    "solution('hello') -> 'olleh'\nsolution('abc') -> 'cba'\nsolution('') -> ''",
		starterCode: "def solution(s):\n    # Your code here\n    pass",
		hints:       []string{"Use the slice [::-1]", "Or loop backwards"},
		tags:        []string{"strings", "basics"},
		timeLimit:   5,
		tests: []seedTest{
			{input: `["hello"]`, expected: `"olleh"`},
			{input: `["abc"]`, expected: `"cba"`},
			{input: `[""]`, expected: `""`},
			{input: `["a"]`, expected: `"a"`, hidden: true},
		},
	},
	{
		level: Junior, difficulty: 3, title: "Count Vowels",
		description: "Write a function solution(s) that returns the number of vowels (a, e, i, o, u) in the string, case-insensitive.",
		examples:    "solution('hello') -> 2\nsolution('AEIOU') -> 5\nsolution('xyz') -> 0",
		starterCode: "def solution(s):\n    # Your code here\n    pass",
		hints:       []string{"Lowercase the input first", "Keep a set of vowels"},
		tags:        []string{"strings", "counting"},
		timeLimit:   7,
		tests: []seedTest{
			{input: `["hello"]`, expected: `2`},
			{input: `["AEIOU"]`, expected: `5`},
			{input: `["xyz"]`, expected: `0`},
			{input: `[""]`, expected: `0`, hidden: true},
		},
	},
	{
		level: Junior, difficulty: 3, title: "Even Numbers",
		description: "Write a function solution(nums) that returns a list of only the even numbers from the input list.",
		examples:    "solution([1,2,3,4,5,6]) -> [2,4,6]\nsolution([1,3,5]) -> []\nsolution([2,4]) -> [2,4]",
		starterCode: "def solution(nums):\n    # Your code here\n    pass",
		hints:       []string{"Use % 2 == 0", "A list comprehension keeps it short"},
		tags:        []string{"arrays", "filtering"},
		timeLimit:   7,
		tests: []seedTest{
			{input: `[[1,2,3,4,5,6]]`, expected: `[2,4,6]`},
			{input: `[[1,3,5]]`, expected: `[]`},
			{input: `[[2,4]]`, expected: `[2,4]`},
			{input: `[[]]`, expected: `[]`, hidden: true},
		},
	},
	{
		level: Middle, difficulty: 4, title: "Two Sum",
		description: "Given a list nums and a target, return the indices of the two numbers that add up to target. Exactly one solution is guaranteed.",
		examples:    "solution([2,7,11,15], 9) -> [0,1]\nsolution([3,2,4], 6) -> [1,2]\nsolution([3,3], 6) -> [0,1]",
		starterCode: "def solution(nums, target):\n    # Hint: use a dictionary\n    pass",
		hints:       []string{"Store indices in a dictionary", "Key is the number, value is its index", "O(n) beats O(n^2)"},
		tags:        []string{"arrays", "hash_table", "classic"},
		timeLimit:   10,
		tests: []seedTest{
			{input: `[[2,7,11,15], 9]`, expected: `[0,1]`},
			{input: `[[3,2,4], 6]`, expected: `[1,2]`},
			{input: `[[3,3], 6]`, expected: `[0,1]`},
			{input: `[[1,5,3,7], 8]`, expected: `[1,2]`, hidden: true},
		},
	},
	{
		level: Middle, difficulty: 5, title: "Valid Parentheses",
		description: "Check whether a bracket string is valid. Brackets: (), [], {}. Every opening bracket must be closed by the matching bracket in the right order.",
		examples:    "solution('()[]{}') -> True\nsolution('(]') -> False\nsolution('([])') -> True\nsolution('([)]') -> False",
		starterCode: "def solution(s):\n    # Your code here\n    pass",
		hints:       []string{"Use a stack", "Map closing brackets to opening ones", "The stack must end up empty"},
		tags:        []string{"stack", "strings", "classic"},
		timeLimit:   10,
		tests: []seedTest{
			{input: `["()[]{}"]`, expected: `true`},
			{input: `["(]"]`, expected: `false`},
			{input: `["([])"]`, expected: `true`},
			{input: `["([)]"]`, expected: `false`, hidden: true},
			{input: `[""]`, expected: `true`, hidden: true},
		},
	},
	{
		level: Middle, difficulty: 5, title: "Anagrams",
		description: "Write a function that checks whether two strings are anagrams (consist of the same letters). Ignore spaces and case.",
		examples:    "solution('listen', 'silent') -> True\nsolution('hello', 'world') -> False\nsolution('Dormitory', 'dirty room') -> True",
		starterCode: "def solution(s1, s2):\n    # Your code here\n    pass",
		hints:       []string{"Strip spaces and normalize case", "Sort the letters or use a Counter"},
		tags:        []string{"strings", "sorting", "hash_table"},
		timeLimit:   10,
		tests: []seedTest{
			{input: `["listen", "silent"]`, expected: `true`},
			{input: `["hello", "world"]`, expected: `false`},
			{input: `["Dormitory", "dirty room"]`, expected: `true`},
			{input: `["a", "a"]`, expected: `true`, hidden: true},
		},
	},
	{
		level: Middle, difficulty: 6, title: "Merge Intervals",
		description: "Given a list of intervals, merge all overlapping ones. Interval [a,b] overlaps [c,d] when c <= b.",
		examples:    "solution([[1,3],[2,6],[8,10],[15,18]]) -> [[1,6],[8,10],[15,18]]\nsolution([[1,4],[4,5]]) -> [[1,5]]",
		starterCode: "def solution(intervals):\n    # Your code here\n    pass",
		hints:       []string{"Sort by interval start first", "Compare the previous end with the current start"},
		tags:        []string{"arrays", "sorting", "intervals"},
		timeLimit:   15,
		tests: []seedTest{
			{input: `[[[1,3],[2,6],[8,10],[15,18]]]`, expected: `[[1,6],[8,10],[15,18]]`},
			{input: `[[[1,4],[4,5]]]`, expected: `[[1,5]]`},
			{input: `[[[1,4],[2,3]]]`, expected: `[[1,4]]`, hidden: true},
		},
	},
	{
		level: Senior, difficulty: 7, title: "LRU Cache",
		description: "Implement an LRU (Least Recently Used) cache with O(1) get and put. When capacity is exceeded, evict the least recently used entry.",
		examples:    "cache = LRUCache(2)\ncache.put(1, 1)\ncache.put(2, 2)\ncache.get(1) -> 1\ncache.put(3, 3)  # evicts key 2\ncache.get(2) -> -1",
		starterCode: "class LRUCache:\n    def __init__(self, capacity: int):\n        pass\n\n    def get(self, key: int) -> int:\n        pass\n\n    def put(self, key: int, value: int) -> None:\n        pass\n\n# Wrap as solution for the test harness\ndef solution(operations, args):\n    cache = None\n    results = []\n    for op, arg in zip(operations, args):\n        if op == 'LRUCache':\n            cache = LRUCache(arg[0])\n            results.append(None)\n        elif op == 'get':\n            results.append(cache.get(arg[0]))\n        elif op == 'put':\n            cache.put(arg[0], arg[1])\n            results.append(None)\n    return results",
		hints:       []string{"OrderedDict simplifies this", "Or a doubly linked list plus a hash map", "move_to_end() on OrderedDict"},
		tags:        []string{"design", "hash_table", "linked_list", "classic"},
		timeLimit:   20,
		tests: []seedTest{
			{
				input:    `[["LRUCache","put","put","get","put","get","put","get","get","get"], [[2],[1,1],[2,2],[1],[3,3],[2],[4,4],[1],[3],[4]]]`,
				expected: `[null,null,null,1,null,-1,null,-1,3,4]`,
			},
		},
	},
	{
		level: Senior, difficulty: 7, title: "Maximum Subarray (Kadane)",
		description: "Find the contiguous subarray with the largest sum and return that sum. Use Kadane's algorithm in O(n).",
		examples:    "solution([-2,1,-3,4,-1,2,1,-5,4]) -> 6  # [4,-1,2,1]\nsolution([1]) -> 1\nsolution([5,4,-1,7,8]) -> 23",
		starterCode: "def solution(nums):\n    # Kadane's algorithm\n    pass",
		hints:       []string{"Track current and best sums", "current = max(num, current + num)", "Must be O(n)"},
		tags:        []string{"arrays", "dp", "classic"},
		timeLimit:   10,
		tests: []seedTest{
			{input: `[[-2,1,-3,4,-1,2,1,-5,4]]`, expected: `6`},
			{input: `[[1]]`, expected: `1`},
			{input: `[[5,4,-1,7,8]]`, expected: `23`},
			{input: `[[-1]]`, expected: `-1`, hidden: true},
		},
	},
	{
		level: Senior, difficulty: 8, title: "Word Break",
		description: "Given a string s and a dictionary wordDict, determine whether s can be segmented into a sequence of dictionary words. Words may be reused.",
		examples:    "solution('leetcode', ['leet','code']) -> True\nsolution('applepenapple', ['apple','pen']) -> True\nsolution('catsandog', ['cats','dog','sand','and','cat']) -> False",
		starterCode: "def solution(s, wordDict):\n    # Use DP\n    pass",
		hints:       []string{"Dynamic programming", "dp[i] = can s[:i] be segmented", "Try every possible word ending"},
		tags:        []string{"dp", "strings", "hash_table"},
		timeLimit:   15,
		tests: []seedTest{
			{input: `["leetcode", ["leet","code"]]`, expected: `true`},
			{input: `["applepenapple", ["apple","pen"]]`, expected: `true`},
			{input: `["catsandog", ["cats","dog","sand","and","cat"]]`, expected: `false`},
			{input: `["a", ["a"]]`, expected: `true`, hidden: true},
		},
	},
	{
		level: Senior, difficulty: 9, title: "Median of Two Sorted Arrays",
		description: "Given two sorted arrays nums1 and nums2, find the median of the merged array in O(log(m+n)).",
		examples:    "solution([1,3], [2]) -> 2.0\nsolution([1,2], [3,4]) -> 2.5",
		starterCode: "def solution(nums1, nums2):\n    # Binary search approach\n    pass",
		hints:       []string{"Binary search over the smaller array", "Find the right partition point", "O(log(min(m,n)))"},
		tags:        []string{"binary_search", "arrays", "hard"},
		timeLimit:   25,
		tests: []seedTest{
			{input: `[[1,3], [2]]`, expected: `2.0`},
			{input: `[[1,2], [3,4]]`, expected: `2.5`},
			{input: `[[0,0], [0,0]]`, expected: `0.0`, hidden: true},
		},
	},
}

// seedQuestions is the theory question bank.
var seedQuestions = []seedQuestion{
	{
		level: Junior, difficulty: 1, category: "python_basics",
		question:       "What is the difference between a list and a tuple in Python?",
		expectedTopics: []string{"mutability/immutability", "mutable/immutable", "[] vs () syntax", "performance"},
		followUp:       []string{"When is a tuple the better choice?", "Can you change an element of a tuple?"},
		tags:           []string{"python", "data_structures"},
	},
	{
		level: Junior, difficulty: 1, category: "python_basics",
		question:       "What is a list comprehension? Give an example.",
		expectedTopics: []string{"[expr for item in iterable] syntax", "building lists", "filtering with if", "readability"},
		followUp:       []string{"How does it differ from a generator expression?", "When is a plain loop better?"},
		tags:           []string{"python", "syntax"},
	},
	{
		level: Junior, difficulty: 2, category: "python_basics",
		question:       "Explain the difference between == and is in Python.",
		expectedTopics: []string{"== compares values", "is compares object identity", "id()", "small integer caching"},
		followUp:       []string{"What does `a = [1,2]; b = [1,2]; a == b; a is b` return?"},
		tags:           []string{"python", "operators"},
	},
	{
		level: Junior, difficulty: 2, category: "algorithms",
		question:       "What is the time complexity of an algorithm? What does O(n) mean?",
		expectedTopics: []string{"Big O notation", "growth with input size", "O(n) is linear", "examples"},
		followUp:       []string{"What is the complexity of lookup in a list? In a dict?"},
		tags:           []string{"algorithms", "complexity"},
	},
	{
		level: Middle, difficulty: 4, category: "python_advanced",
		question:       "What are decorators in Python? How do they work?",
		expectedTopics: []string{"higher-order function", "wrapping functions", "@decorator syntax", "functools.wraps", "use cases"},
		followUp:       []string{"Write a decorator that measures execution time", "What is a parameterized decorator?"},
		tags:           []string{"python", "decorators", "functions"},
	},
	{
		level: Middle, difficulty: 4, category: "python_advanced",
		question:       "Explain the GIL (Global Interpreter Lock). How does it affect multithreading?",
		expectedTopics: []string{"one thread executes bytecode", "CPU-bound workloads suffer", "multiprocessing as an alternative", "IO-bound workloads are fine"},
		followUp:       []string{"When threading, when multiprocessing?", "How can the GIL be worked around?"},
		tags:           []string{"python", "concurrency", "threading"},
	},
	{
		level: Middle, difficulty: 5, category: "algorithms",
		question:       "Explain the difference between BFS and DFS. When would you use each?",
		expectedTopics: []string{"BFS uses a queue", "DFS uses a stack or recursion", "BFS for shortest paths", "DFS for exhaustive traversal"},
		followUp:       []string{"What is the memory complexity of each?", "Implement DFS for a graph"},
		tags:           []string{"algorithms", "graphs", "traversal"},
	},
	{
		level: Middle, difficulty: 5, category: "databases",
		question:       "How do SQL and NoSQL databases differ? When would you use each?",
		expectedTopics: []string{"relational vs document", "ACID vs BASE", "schema vs schemaless", "scaling", "examples: PostgreSQL, MongoDB"},
		followUp:       []string{"What is ACID?", "Give an example where NoSQL is the better fit"},
		tags:           []string{"databases", "sql", "nosql"},
	},
	{
		level: Middle, difficulty: 5, category: "system_design",
		question:       "What is a REST API? What are its core principles?",
		expectedTopics: []string{"stateless", "HTTP methods GET/POST/PUT/DELETE", "resources and URIs", "status codes", "JSON"},
		followUp:       []string{"How does REST differ from GraphQL?", "What is idempotency?"},
		tags:           []string{"api", "rest", "http"},
	},
	{
		level: Senior, difficulty: 7, category: "system_design",
		question:       "How would you design a URL shortening service (like bit.ly)?",
		expectedTopics: []string{"hashing/base62", "mapping store", "Redis caching", "scaling", "collision handling", "click analytics"},
		followUp:       []string{"How do you guarantee short-URL uniqueness?", "How do you scale to millions of requests?"},
		tags:           []string{"system_design", "scaling", "databases"},
	},
	{
		level: Senior, difficulty: 7, category: "python_advanced",
		question:       "Explain metaclasses in Python. When are they needed?",
		expectedTopics: []string{"class of classes", "type as the metaclass", "__new__ and __init__", "customizing class creation", "ORMs, Django models"},
		followUp:       []string{"Write a metaclass that auto-registers classes", "What are the alternatives?"},
		tags:           []string{"python", "metaclasses", "advanced"},
	},
	{
		level: Senior, difficulty: 8, category: "system_design",
		question:       "How do you ensure data consistency in a distributed system?",
		expectedTopics: []string{"CAP theorem", "eventual consistency", "strong consistency", "distributed transactions", "saga pattern", "2PC"},
		followUp:       []string{"What is the CAP theorem?", "How does the saga pattern work?"},
		tags:           []string{"distributed_systems", "consistency", "architecture"},
	},
	{
		level: Senior, difficulty: 8, category: "architecture",
		question:       "Tell me about design patterns you use. Give examples.",
		expectedTopics: []string{"Singleton, Factory, Strategy, Observer", "SOLID principles", "when to apply them", "antipatterns"},
		followUp:       []string{"When is Singleton an antipattern?", "Explain dependency injection"},
		tags:           []string{"patterns", "architecture", "oop"},
	},
	{
		level: Senior, difficulty: 9, category: "system_design",
		question:       "Design a highly available payment processing system.",
		expectedTopics: []string{"idempotency", "transactions", "retry with backoff", "queues", "monitoring", "PCI DSS", "distributed locks"},
		followUp:       []string{"How do you handle a double charge?", "How do you get exactly-once semantics?"},
		tags:           []string{"system_design", "payments", "reliability"},
	},
}
